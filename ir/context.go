package ir

// Context owns the primitive type singletons. Modules parsed with the same
// Context share them, so primitive entries of those modules compare equal by
// pointer. A Context is immutable after NewContext and safe for concurrent use.
type Context struct {
	primitives [KindMetadata + 1]*Primitive
}

// NewContext creates a Context with one instance of every primitive kind.
func NewContext() *Context {
	c := &Context{}
	for k := KindVoid; k <= KindMetadata; k++ {
		c.primitives[k] = &Primitive{kind: k}
	}
	return c
}

// Primitive returns the singleton for k, or nil if k is not a primitive kind.
func (c *Context) Primitive(k Kind) *Primitive {
	if !k.IsPrimitive() {
		return nil
	}
	return c.primitives[k]
}

func (c *Context) Void() *Primitive     { return c.primitives[KindVoid] }
func (c *Context) Label() *Primitive    { return c.primitives[KindLabel] }
func (c *Context) Metadata() *Primitive { return c.primitives[KindMetadata] }
