package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/example/storefront/pkg/config"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// ServiceDiscovery registers and resolves services in etcd.
type ServiceDiscovery struct {
	client *clientv3.Client
	config *config.EtcdConfig
	logger *zap.Logger

	mu     sync.Mutex
	leases map[string]clientv3.LeaseID
}

type ServiceInstance struct {
	Name string
	Host string
	Port int
}

func (i *ServiceInstance) Addr() string {
	return net.JoinHostPort(i.Host, strconv.Itoa(i.Port))
}

// NewServiceDiscovery creates a new service discovery client
func NewServiceDiscovery(cfg *config.EtcdConfig, logger *zap.Logger) (*ServiceDiscovery, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &ServiceDiscovery{
		client: cli,
		config: cfg,
		logger: logger,
		leases: make(map[string]clientv3.LeaseID),
	}, nil
}

func (sd *ServiceDiscovery) serviceKey(instance *ServiceInstance) string {
	return fmt.Sprintf("%s%s/%s", sd.config.Prefix, instance.Name, instance.Addr())
}

// Register publishes the instance under a lease that is kept alive until ctx
// is cancelled or Deregister is called.
func (sd *ServiceDiscovery) Register(ctx context.Context, instance *ServiceInstance) error {
	key := sd.serviceKey(instance)

	ttl := sd.config.LeaseTTL
	if ttl <= 0 {
		ttl = 30
	}
	lease, err := sd.client.Grant(ctx, ttl)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	_, err = sd.client.Put(ctx, key, instance.Addr(), clientv3.WithLease(lease.ID))
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	ch, kaerr := sd.client.KeepAlive(ctx, lease.ID)
	if kaerr != nil {
		return fmt.Errorf("failed to keep alive: %w", kaerr)
	}

	sd.mu.Lock()
	sd.leases[key] = lease.ID
	sd.mu.Unlock()

	go func() {
		for range ch {
		}
		sd.logger.Info("Service lease keep-alive stopped", zap.String("key", key))
	}()

	sd.logger.Info("Service registered", zap.String("key", key), zap.Int64("ttl", ttl))
	return nil
}

// Discover returns the registered instances of serviceName.
func (sd *ServiceDiscovery) Discover(ctx context.Context, serviceName string) ([]*ServiceInstance, error) {
	key := fmt.Sprintf("%s%s/", sd.config.Prefix, serviceName)

	resp, err := sd.client.Get(ctx, key, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to discover service: %w", err)
	}

	var instances []*ServiceInstance
	for _, kv := range resp.Kvs {
		instance, err := ParseInstance(serviceName, string(kv.Value))
		if err != nil {
			sd.logger.Warn("Skipping malformed service entry", zap.String("key", string(kv.Key)), zap.Error(err))
			continue
		}
		instances = append(instances, instance)
	}

	return instances, nil
}

// ParseInstance reads a host:port registration value.
func ParseInstance(name, addr string) (*ServiceInstance, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return &ServiceInstance{Name: name, Host: host, Port: port}, nil
}

// Deregister removes the instance, revoking its lease.
func (sd *ServiceDiscovery) Deregister(ctx context.Context, instance *ServiceInstance) error {
	key := sd.serviceKey(instance)

	sd.mu.Lock()
	leaseID, ok := sd.leases[key]
	delete(sd.leases, key)
	sd.mu.Unlock()

	if ok {
		if _, err := sd.client.Revoke(ctx, leaseID); err != nil {
			return fmt.Errorf("failed to revoke lease: %w", err)
		}
		return nil
	}

	_, err := sd.client.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	return nil
}

func (sd *ServiceDiscovery) Close() error {
	return sd.client.Close()
}
