package serialization

// ParseNodeProxyFactory decorates every root node of a concrete factory with extra
// before/after assignment hooks, chained ahead of any hooks the node already has.
type ParseNodeProxyFactory struct {
	concrete ParseNodeFactory
	onBefore ParsableAction
	onAfter  ParsableAction
}

// NewParseNodeProxyFactory wraps concrete.
func NewParseNodeProxyFactory(concrete ParseNodeFactory, onBefore, onAfter ParsableAction) *ParseNodeProxyFactory {
	return &ParseNodeProxyFactory{concrete: concrete, onBefore: onBefore, onAfter: onAfter}
}

func (p *ParseNodeProxyFactory) GetValidContentType() (string, error) {
	return p.concrete.GetValidContentType()
}

func (p *ParseNodeProxyFactory) GetRootParseNode(contentType string, content []byte) (ParseNode, error) {
	node, err := p.concrete.GetRootParseNode(contentType, content)
	if err != nil || node == nil {
		return node, err
	}
	if err := node.SetOnBeforeAssignFieldValues(chain(p.onBefore, node.GetOnBeforeAssignFieldValues())); err != nil {
		return nil, err
	}
	if err := node.SetOnAfterAssignFieldValues(chain(p.onAfter, node.GetOnAfterAssignFieldValues())); err != nil {
		return nil, err
	}
	return node, nil
}

// SerializationWriterProxyFactory decorates writers of a concrete factory with extra hooks.
type SerializationWriterProxyFactory struct {
	concrete SerializationWriterFactory
	onBefore ParsableAction
	onAfter  ParsableAction
	onStart  ParsableWriter
}

// NewSerializationWriterProxyFactory wraps concrete.
func NewSerializationWriterProxyFactory(concrete SerializationWriterFactory, onBefore, onAfter ParsableAction, onStart ParsableWriter) *SerializationWriterProxyFactory {
	return &SerializationWriterProxyFactory{concrete: concrete, onBefore: onBefore, onAfter: onAfter, onStart: onStart}
}

func (p *SerializationWriterProxyFactory) GetValidContentType() (string, error) {
	return p.concrete.GetValidContentType()
}

func (p *SerializationWriterProxyFactory) GetSerializationWriter(contentType string) (SerializationWriter, error) {
	writer, err := p.concrete.GetSerializationWriter(contentType)
	if err != nil || writer == nil {
		return writer, err
	}
	if err := writer.SetOnBeforeSerialization(chain(p.onBefore, writer.GetOnBeforeSerialization())); err != nil {
		return nil, err
	}
	if err := writer.SetOnAfterObjectSerialization(chain(p.onAfter, writer.GetOnAfterObjectSerialization())); err != nil {
		return nil, err
	}
	if p.onStart != nil {
		original := writer.GetOnStartObjectSerialization()
		start := p.onStart
		err := writer.SetOnStartObjectSerialization(func(item Parsable, w SerializationWriter) error {
			if err := start(item, w); err != nil {
				return err
			}
			if original != nil {
				return original(item, w)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return writer, nil
}

func chain(first, second ParsableAction) ParsableAction {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	}
	return func(item Parsable) error {
		if err := first(item); err != nil {
			return err
		}
		return second(item)
	}
}
