package cli

import "context"

func (a *App) Health(ctx context.Context) error {
	h, err := a.checkHealth(ctx, a.config.HealthAddr)
	if err != nil {
		return a.report(err)
	}

	status := "serving"
	if !h.Serving {
		status = "not serving"
	}
	store := "durable"
	if !h.StoreDurable {
		store = "memory only (" + h.StoreStatusRaw + ")"
	}
	a.printf("Server: %s\nRoom store: %s\n", status, store)
	return nil
}
