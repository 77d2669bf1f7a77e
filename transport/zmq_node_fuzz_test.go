package transport

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Onyekachukwu-Nweke/consensus-systems/consensus"
)

// FuzzEnvelopeParsing tests Envelope JSON parsing with random inputs,
// adapted from hierachain-engine/network/zmq_transport_fuzz_test.go's
// FuzzMessageParsing.
func FuzzEnvelopeParsing(f *testing.F) {
	valid := Envelope{
		From:      1,
		Msg:       consensus.Message{Kind: consensus.Prepare, Src: 1, Dst: 2, Value: consensus.ValueV1},
		Timestamp: time.Now(),
		Nonce:     "1-2-1000",
	}
	validJSON, _ := json.Marshal(valid)
	f.Add(validJSON)

	f.Add([]byte(`{}`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`null`))
	f.Add([]byte(`"string"`))
	f.Add([]byte(`{"from":-1,"msg":{"kind":99,"src":0,"dst":0,"value":7},"nonce":""}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var env Envelope
		err := json.Unmarshal(data, &env)
		if err == nil {
			_, _ = json.Marshal(env)
		}
	})
}
