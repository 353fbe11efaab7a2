// cart — корзина покупателя: упорядоченное множество объявлений без дублей по listingId,
// целиком хранящееся под одним ключом персистентного key-value хранилища.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/pribylovaa/car-marketplace/internal/metrics"
	"github.com/pribylovaa/car-marketplace/internal/models"
	"github.com/pribylovaa/car-marketplace/internal/pkg/log"
	"github.com/pribylovaa/car-marketplace/internal/storage"
)

// Summary — содержимое корзины вместе с агрегатами, прочитанное за одно обращение.
type Summary struct {
	Items []models.CartItem `json:"items"`
	Count int               `json:"count"`
	Total decimal.Decimal   `json:"total"`
}

// Store — корзина, привязанная к одному ключу хранилища.
//
// Каждая операция — единый read-modify-write под мьютексом: операции одной
// корзины никогда не перемежаются. Чтение всегда идёт из хранилища,
// копии в памяти нет.
type Store struct {
	mu      *sync.Mutex
	storage storage.Storage
	key     string
	metrics *metrics.Metrics
}

// New создаёт корзину поверх хранилища st под ключом key.
func New(st storage.Storage, key string, m *metrics.Metrics) *Store {
	return &Store{mu: &sync.Mutex{}, storage: st, key: key, metrics: m}
}

// Key возвращает ключ хранилища корзины.
func (s *Store) Key() string { return s.key }

// AddItem добавляет объявление в конец корзины.
//
// Отказы (*RejectedError):
//   - ErrInvalidItem — нет listingId, названия или цены, либо цена отрицательна;
//   - ErrAlreadyInCart — объявление уже в корзине, существующая позиция не меняется.
func (s *Store) AddItem(ctx context.Context, item models.CartItem) ([]models.CartItem, error) {
	const op = "cart/AddItem"

	lg := log.From(ctx).With("op", op, "cart_key", s.key, "listing_id", item.ListingID)

	if err := validate(item); err != nil {
		lg.Warn("item rejected", "reason", err.Error())
		s.metrics.ObserveCart("add", "rejected")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		lg.Error("load failed", "err", err)
		s.metrics.ObserveCart("add", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if indexOf(items, item.ListingID) >= 0 {
		lg.Info("item rejected", "reason", ErrAlreadyInCart.Error())
		s.metrics.ObserveCart("add", "rejected")
		return nil, fmt.Errorf("%s: %w", op, reject(ErrAlreadyInCart, "already in cart"))
	}

	item.Title = strings.TrimSpace(item.Title)
	items = append(items, item)

	if err := s.persist(ctx, items); err != nil {
		lg.Error("persist failed", "err", err)
		s.metrics.ObserveCart("add", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.ObserveCart("add", "ok")
	return items, nil
}

// RemoveItem убирает объявление из корзины. Отсутствие позиции — не ошибка.
func (s *Store) RemoveItem(ctx context.Context, listingID int64) ([]models.CartItem, error) {
	const op = "cart/RemoveItem"

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		s.metrics.ObserveCart("remove", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	kept := items[:0]
	for _, it := range items {
		if it.ListingID != listingID {
			kept = append(kept, it)
		}
	}

	if err := s.persist(ctx, kept); err != nil {
		s.metrics.ObserveCart("remove", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.ObserveCart("remove", "ok")
	return kept, nil
}

// Clear опустошает корзину: ключ удаляется из хранилища, отсутствующий ключ
// читается как пустая корзина.
func (s *Store) Clear(ctx context.Context) error {
	const op = "cart/Clear"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, s.key); err != nil {
		s.metrics.ObserveCart("clear", "error")
		return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
	}

	s.metrics.ObserveCart("clear", "ok")
	return nil
}

// BuyNow — сценарий «купить сейчас»: корзина очищается и в ней остаётся только item.
// Валидация та же, что у AddItem; при отказе корзина не трогается.
func (s *Store) BuyNow(ctx context.Context, item models.CartItem) ([]models.CartItem, error) {
	const op = "cart/BuyNow"

	if err := validate(item); err != nil {
		s.metrics.ObserveCart("buy_now", "rejected")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item.Title = strings.TrimSpace(item.Title)
	items := []models.CartItem{item}

	if err := s.persist(ctx, items); err != nil {
		s.metrics.ObserveCart("buy_now", "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("buy now", "op", op, "cart_key", s.key, "listing_id", item.ListingID)
	s.metrics.ObserveCart("buy_now", "ok")
	return items, nil
}

// GetAll возвращает содержимое корзины в порядке добавления.
// Это канонический путь чтения: каждый вызов заново декодирует хранилище.
func (s *Store) GetAll(ctx context.Context) ([]models.CartItem, error) {
	const op = "cart/GetAll"

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// Total — сумма цен. Пустая корзина -> 0; нечитаемая цена позиции считается нулём.
func (s *Store) Total(ctx context.Context) (decimal.Decimal, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	return total(items), nil
}

// Count — число позиций.
func (s *Store) Count(ctx context.Context) (int, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	return len(items), nil
}

// Contains сообщает, лежит ли объявление в корзине.
func (s *Store) Contains(ctx context.Context, listingID int64) (bool, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return false, err
	}

	return indexOf(items, listingID) >= 0, nil
}

// Summary возвращает позиции, их число и сумму по одному снимку хранилища.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	items, err := s.GetAll(ctx)
	if err != nil {
		return Summary{}, err
	}

	return Summarize(items), nil
}

// Summarize считает агрегаты по уже прочитанным позициям (например, по результату AddItem).
func Summarize(items []models.CartItem) Summary {
	return Summary{Items: items, Count: len(items), Total: total(items)}
}

// load читает и декодирует корзину. Отсутствие ключа — пустая корзина.
// Испорченный документ тоже трактуется как пустая корзина: формат не версионируется,
// и читатель обязан его пережить.
func (s *Store) load(ctx context.Context) ([]models.CartItem, error) {
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []models.CartItem{}, nil
		}

		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	var items []models.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		log.From(ctx).Warn("corrupted cart document, treating as empty",
			"cart_key", s.key,
			"err", err,
		)
		return []models.CartItem{}, nil
	}

	if items == nil {
		items = []models.CartItem{}
	}

	return items, nil
}

func (s *Store) persist(ctx context.Context, items []models.CartItem) error {
	if items == nil {
		items = []models.CartItem{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrStorage, err)
	}

	if err := s.storage.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return nil
}

func validate(item models.CartItem) error {
	switch {
	case item.ListingID <= 0:
		return reject(ErrInvalidItem, "listing id is required")
	case strings.TrimSpace(item.Title) == "":
		return reject(ErrInvalidItem, "title is required")
	case !item.Price.Valid:
		return reject(ErrInvalidItem, "price is required")
	case item.Price.IsNegative():
		return reject(ErrInvalidItem, "price must not be negative")
	}

	return nil
}

func indexOf(items []models.CartItem, listingID int64) int {
	for i, it := range items {
		if it.ListingID == listingID {
			return i
		}
	}

	return -1
}

func total(items []models.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Amount())
	}

	return sum
}
