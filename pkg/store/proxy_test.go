package store

import (
	"testing"

	"github.com/samvad-hq/restyadapter/pkg/serialization"
	"github.com/samvad-hq/restyadapter/pkg/serialization/jsonnode"
)

type profile struct {
	backing BackingStore
}

func newProfile(serialization.ParseNode) (serialization.Parsable, error) {
	return &profile{backing: NewInMemoryBackingStore()}, nil
}

func (p *profile) GetBackingStore() BackingStore { return p.backing }

func (p *profile) Serialize(writer serialization.SerializationWriter) error {
	for _, key := range []string{"city", "name"} {
		v, _ := p.backing.Get(key)
		if s, ok := v.(*string); ok && s != nil {
			if err := writer.WriteStringValue(key, s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *profile) GetFieldDeserializers() map[string]func(serialization.ParseNode) error {
	field := func(key string) func(serialization.ParseNode) error {
		return func(n serialization.ParseNode) error {
			v, err := n.GetStringValue()
			if err != nil {
				return err
			}
			return p.backing.Set(key, v)
		}
	}
	return map[string]func(serialization.ParseNode) error{"name": field("name"), "city": field("city")}
}

func TestProxiesWriteOnlyChangedValues(t *testing.T) {
	parseFactory := NewBackingStoreParseNodeFactory(jsonnode.NewJsonParseNodeFactory())
	node, err := parseFactory.GetRootParseNode("application/json", []byte(`{"name":"ada","city":"london"}`))
	if err != nil {
		t.Fatalf("GetRootParseNode: %v", err)
	}
	item, err := node.GetObjectValue(newProfile)
	if err != nil {
		t.Fatalf("GetObjectValue: %v", err)
	}
	p := item.(*profile)
	if !p.backing.GetInitializationCompleted() {
		t.Fatalf("expected initialization to be completed")
	}

	renamed := "grace"
	var cleared *string
	_ = p.backing.Set("name", &renamed)
	_ = p.backing.Set("city", cleared)

	writerFactory := NewBackingStoreSerializationWriterProxyFactory(jsonnode.NewJsonSerializationWriterFactory())
	writer, err := writerFactory.GetSerializationWriter("application/json")
	if err != nil {
		t.Fatalf("GetSerializationWriter: %v", err)
	}
	if err := writer.WriteObjectValue("", p); err != nil {
		t.Fatalf("WriteObjectValue: %v", err)
	}
	content, _ := writer.GetSerializedContent()
	if string(content) != `{"city":null,"name":"grace"}` {
		t.Fatalf("unexpected payload %s", content)
	}
	if p.backing.GetReturnOnlyChangedValues() {
		t.Fatalf("expected return-only-changed to be reset after writing")
	}

	again, _ := writerFactory.GetSerializationWriter("application/json")
	_ = again.WriteObjectValue("", p)
	content, _ = again.GetSerializedContent()
	if string(content) != `{}` {
		t.Fatalf("expected nothing left to write, got %s", content)
	}
}
