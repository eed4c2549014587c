package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	getBlockSchema := compile("get_block.schema.json")
	blockInfoSchema := compile("block_info.schema.json")
	setBlockSchema := compile("set_block.schema.json")
	ackSchema := compile("ack.schema.json")
	getChunkSchema := compile("get_chunk.schema.json")
	chunkDataSchema := compile("chunk_data.schema.json")
	errorSchema := compile("error.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"admin-cli"
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"0f8fad5b-d9cb-469f-a165-70867728950e",
	  "world_id":"overworld",
	  "world_params":{
	    "chunk_dims":[32,32,32],
	    "world_radius":4,
	    "seed":1337
	  },
	  "palette":{"digest":"deadbeef","count":8}
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var getBlock any
	_ = json.Unmarshal([]byte(`{
	  "type":"GET_BLOCK",
	  "req_id":"r1",
	  "pos":[4,-7,12]
	}`), &getBlock)
	validate(getBlockSchema, getBlock)

	var blockInfo any
	_ = json.Unmarshal([]byte(`{
	  "type":"BLOCK_INFO",
	  "req_id":"r1",
	  "pos":[4,-7,12],
	  "block":"stairs",
	  "name":"Stairs",
	  "entity":false,
	  "state":26,
	  "addr":0
	}`), &blockInfo)
	validate(blockInfoSchema, blockInfo)

	var setBlock any
	_ = json.Unmarshal([]byte(`{
	  "type":"SET_BLOCK",
	  "req_id":"r2",
	  "pos":[4,-7,12],
	  "block":"chest"
	}`), &setBlock)
	validate(setBlockSchema, setBlock)

	var ack any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACK",
	  "ack_for":"r2",
	  "accepted":true
	}`), &ack)
	validate(ackSchema, ack)

	var getChunk any
	_ = json.Unmarshal([]byte(`{
	  "type":"GET_CHUNK",
	  "req_id":"r3",
	  "chunk":[0,-1,2]
	}`), &getChunk)
	validate(getChunkSchema, getChunk)

	var chunkData any
	_ = json.Unmarshal([]byte(`{
	  "type":"CHUNK_DATA",
	  "req_id":"r3",
	  "chunk":[0,-1,2],
	  "dims":[32,32,32],
	  "encoding":"RLE",
	  "data":"AICAAg==",
	  "entities":[{"addr":0,"block":"chest","name":"Chest"}],
	  "digest":"deadbeef"
	}`), &chunkData)
	validate(chunkDataSchema, chunkData)

	var errMsg any
	_ = json.Unmarshal([]byte(`{
	  "type":"ERROR",
	  "req_id":"r4",
	  "code":"E_OUT_OF_BOUNDS",
	  "message":"(99,0,0) outside loaded world"
	}`), &errMsg)
	validate(errorSchema, errMsg)
}
