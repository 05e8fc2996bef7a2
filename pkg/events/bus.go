package events

import (
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/storefront/pkg/repository"
	"go.uber.org/zap"
)

// Bus fans events out to the audit and notification actors.
type Bus struct {
	system *actor.ActorSystem
	pids   []*actor.PID
	logger *zap.Logger
}

// NewBus spawns the audit and notification actors.
func NewBus(audit repository.AuditStore, logger *zap.Logger) (*Bus, error) {
	system := actor.NewActorSystem()

	auditProps := actor.PropsFromProducer(func() actor.Actor {
		return &AuditActor{store: audit, timeout: 5 * time.Second, logger: logger.Named("audit-actor")}
	})
	auditPid, err := system.Root.SpawnNamed(auditProps, "audit-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn audit actor: %w", err)
	}

	notificationProps := actor.PropsFromProducer(func() actor.Actor {
		return &NotificationActor{logger: logger.Named("notification-actor")}
	})
	notificationPid, err := system.Root.SpawnNamed(notificationProps, "notification-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn notification actor: %w", err)
	}

	logger.Info("Event actors started",
		zap.String("audit_actor", auditPid.Id),
		zap.String("notification_actor", notificationPid.Id))

	return &Bus{
		system: system,
		pids:   []*actor.PID{auditPid, notificationPid},
		logger: logger,
	}, nil
}

// Publish sends event to every actor without waiting.
func (b *Bus) Publish(event interface{}) {
	for _, pid := range b.pids {
		b.system.Root.Send(pid, event)
	}
}

// Close drains the actors' mailboxes and stops them.
func (b *Bus) Close() {
	for _, pid := range b.pids {
		if err := b.system.Root.PoisonFuture(pid).Wait(); err != nil {
			b.logger.Warn("Actor did not stop cleanly", zap.String("pid", pid.Id), zap.Error(err))
		}
	}
}
