package store

import "github.com/samvad-hq/restyadapter/pkg/serialization"

// NewBackingStoreParseNodeFactory wraps concrete so that values assigned while hydrating a
// backed model are not reported as changed.
func NewBackingStoreParseNodeFactory(concrete serialization.ParseNodeFactory) *serialization.ParseNodeProxyFactory {
	return serialization.NewParseNodeProxyFactory(concrete,
		func(item serialization.Parsable) error {
			if s := backingStoreOf(item); s != nil {
				s.SetInitializationCompleted(false)
			}
			return nil
		},
		func(item serialization.Parsable) error {
			if s := backingStoreOf(item); s != nil {
				s.SetInitializationCompleted(true)
			}
			return nil
		},
	)
}

// NewBackingStoreSerializationWriterProxyFactory wraps concrete so that backed models only write
// changed values, including explicit nulls for values reset to nil.
func NewBackingStoreSerializationWriterProxyFactory(concrete serialization.SerializationWriterFactory) *serialization.SerializationWriterProxyFactory {
	return serialization.NewSerializationWriterProxyFactory(concrete,
		func(item serialization.Parsable) error {
			if s := backingStoreOf(item); s != nil {
				s.SetReturnOnlyChangedValues(true)
			}
			return nil
		},
		func(item serialization.Parsable) error {
			if s := backingStoreOf(item); s != nil {
				s.SetReturnOnlyChangedValues(false)
				s.SetInitializationCompleted(true)
			}
			return nil
		},
		func(item serialization.Parsable, writer serialization.SerializationWriter) error {
			s := backingStoreOf(item)
			if s == nil {
				return nil
			}
			for _, key := range s.EnumerateKeysForValuesChangedToNil() {
				if err := writer.WriteNullValue(key); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

func backingStoreOf(item serialization.Parsable) BackingStore {
	if m, ok := item.(BackedModel); ok {
		return m.GetBackingStore()
	}
	return nil
}
