// cache.go — LRU-кэш подразделений с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/unit-tracker/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ut_cache_hits_total",
		Help: "Общее количество попаданий в кэш подразделений.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ut_cache_misses_total",
		Help: "Общее количество промахов кэша подразделений.",
	})
)

// CacheService — LRU-кэш подразделений по id с автоматическим TTL.
// Хранит копии: изменения, сделанные вызывающим, не попадают в кэш.
//
// Каждая запись (Set, Delete) увеличивает поколение. Чтение из хранилища
// попадает в кэш через Fill только если поколение не изменилось с начала
// чтения: строка, прочитанная до параллельной записи, в кэш не попадёт.
type CacheService struct {
	cache *expirable.LRU[int64, *model.Unit]

	mu  sync.Mutex
	gen uint64
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	cache := expirable.NewLRU[int64, *model.Unit](maxSize, nil, ttl)
	return &CacheService{cache: cache}
}

// Get возвращает копию подразделения из кэша.
// Обновляет Prometheus-метрики hit/miss.
func (c *CacheService) Get(id int64) (*model.Unit, bool) {
	val, ok := c.cache.Get(id)
	if ok {
		cacheHitsTotal.Inc()
		return val.Clone(), true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Generation — текущее поколение; берётся до чтения из хранилища.
func (c *CacheService) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Fill кэширует результат чтения, начатого в поколении gen.
// Возвращает false, если с тех пор была запись.
func (c *CacheService) Fill(u *model.Unit, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.cache.Add(u.ID, u.Clone())
	return true
}

// Set сохраняет результат записи.
func (c *CacheService) Set(u *model.Unit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.cache.Add(u.ID, u.Clone())
}

// Delete удаляет запись из кэша.
func (c *CacheService) Delete(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.cache.Remove(id)
}

// Len возвращает количество записей в кэше.
func (c *CacheService) Len() int {
	return c.cache.Len()
}
