// Package transport ships consensus.Message envelopes between separate
// OS processes, one per replica, over ZeroMQ ROUTER/DEALER sockets. It
// is the live counterpart to consensus.Network: where consensus.Network
// is an in-memory simulation buffer explored exhaustively by a Driver,
// transport.ZmqNode actually sends bytes across a socket for a real
// multi-process deployment of the protocol.
package transport
