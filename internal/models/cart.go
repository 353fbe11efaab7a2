package models

// CartItem — объявление, отложенное пользователем к покупке.
// Обязательные поля: ListingID, Title, Price. Остальные опциональны,
// читатель сохранённой корзины обязан переживать их отсутствие.
type CartItem struct {
	ListingID int64         `json:"listingId"`
	SellerID  int64         `json:"sellerId,omitempty"`
	Title     string        `json:"title"`
	Location  string        `json:"location,omitempty"`
	Price     Price         `json:"price"`
	Status    ListingStatus `json:"status,omitempty"`
	Brand     string        `json:"brand,omitempty"`
	Model     string        `json:"model,omitempty"`
	ImageRef  string        `json:"imageRef,omitempty"`
}
