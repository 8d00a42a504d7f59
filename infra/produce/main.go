package produce

import amqp "github.com/rabbitmq/amqp091-go"

type Produce struct {
	CleanupService   *CleanupService
	ReconcileService *ReconcileService
}

var produceInstance *Produce

func InitProduce(channel *amqp.Channel) *Produce {
	if produceInstance != nil {
		return produceInstance
	}

	cleanupService := InitCleanupService(channel)
	if cleanupService == nil {
		panic("Failed to initialize Cleanup service")
	}

	reconcileService := InitReconcileService(channel)
	if reconcileService == nil {
		panic("Failed to initialize Reconcile service")
	}

	produceInstance = &Produce{
		CleanupService:   cleanupService,
		ReconcileService: reconcileService,
	}

	return produceInstance
}

func GetProduce() *Produce {
	if produceInstance == nil {
		panic("Produce not initialized. Call InitProduce() first.")
	}
	return produceInstance
}
