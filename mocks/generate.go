package mocks

//go:generate mockgen -destination=./mock_broker.go -package=mocks github.com/rxtech-lab/argo-runtime/internal/broker Broker
//go:generate mockgen -destination=./mock_journal.go -package=mocks github.com/rxtech-lab/argo-runtime/internal/journal Recorder
//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/argo-runtime/internal/strategy Strategy
//go:generate mockgen -destination=./mock_order_placer.go -package=mocks github.com/rxtech-lab/argo-runtime/internal/strategy OrderPlacer
//go:generate mockgen -destination=./mock_dispatch_engine.go -package=mocks github.com/rxtech-lab/argo-runtime/internal/engine DispatchEngine
