package player

// Factory constructs players bound to an application context.
type Factory[P Player] interface {
	CreatePlayer(ctx AppContext) (P, error)
}

// FactoryFunc adapts a function to Factory[Player].
type FactoryFunc func(ctx AppContext) (Player, error)

// CreatePlayer calls f(ctx).
func (f FactoryFunc) CreatePlayer(ctx AppContext) (Player, error) {
	return f(ctx)
}

// Generic adapts a factory of a concrete player type to one returning the
// Player interface.
func Generic[P Player](f Factory[P]) Factory[Player] {
	return FactoryFunc(func(ctx AppContext) (Player, error) {
		p, err := f.CreatePlayer(ctx)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}
