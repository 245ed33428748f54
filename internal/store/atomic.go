package store

import "context"

type txKey struct{}

type txState struct {
	tx    Store
	hooks []func()
}

// RunAtomic ejecuta fn dentro de una unidad atómica. Si ctx ya trae una
// unidad abierta, fn se une a ella; si no, abre una nueva sobre s.
// Las llamadas anidadas de servicios comparten así una sola transacción.
func RunAtomic(ctx context.Context, s Store, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	state := &txState{}
	err := s.Atomic(ctx, func(tx Store) error {
		state.tx = tx
		return fn(context.WithValue(ctx, txKey{}, state))
	})
	if err != nil {
		return err
	}

	for _, hook := range state.hooks {
		hook()
	}
	return nil
}

// Resolve devuelve la unidad atómica abierta en ctx, o s si no hay ninguna
func Resolve(ctx context.Context, s Store) Store {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		return state.tx
	}
	return s
}

// InTx reporta si ctx trae una unidad atómica abierta
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*txState)
	return ok
}

// AfterCommit agenda fn para cuando la unidad abierta en ctx confirme.
// Fuera de una unidad, fn se ejecuta de inmediato.
func AfterCommit(ctx context.Context, fn func()) {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		state.hooks = append(state.hooks, fn)
		return
	}
	fn()
}
