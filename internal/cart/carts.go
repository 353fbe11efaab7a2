package cart

import (
	"hash/fnv"
	"sync"

	"github.com/pribylovaa/car-marketplace/internal/metrics"
	"github.com/pribylovaa/car-marketplace/internal/storage"
)

// lockStripes — число мьютексов, между которыми распределяются ключи корзин.
const lockStripes = 256

// Carts выдаёт Store по идентификатору корзины.
//
// Сами Store не запоминаются: корзина с одним ключом всегда получает один и тот же
// мьютекс из фиксированного набора, поэтому запросы одного браузера сериализуются,
// а память реестра не растёт с числом корзин.
type Carts struct {
	storage storage.Storage
	prefix  string
	metrics *metrics.Metrics
	locks   [lockStripes]sync.Mutex
}

// NewCarts создаёт реестр корзин; ключ хранилища — "<prefix>:<cartID>".
func NewCarts(st storage.Storage, prefix string, m *metrics.Metrics) *Carts {
	if prefix == "" {
		prefix = "cart"
	}

	return &Carts{
		storage: st,
		prefix:  prefix,
		metrics: m,
	}
}

// For возвращает корзину cartID.
func (c *Carts) For(cartID string) *Store {
	key := c.prefix + ":" + cartID

	return &Store{
		mu:      c.lockFor(key),
		storage: c.storage,
		key:     key,
		metrics: c.metrics,
	}
}

func (c *Carts) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))

	return &c.locks[h.Sum32()%lockStripes]
}
