package backendapi

import "time"

// User mirrors the backend user record as returned by auth endpoints.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email,omitempty"`
	Username      string `json:"username,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
	Bio           string `json:"bio,omitempty"`
	EmailVerified bool   `json:"emailVerified,omitempty"`
}

// TokenPair is the backend-issued access/refresh pair. ExpiresIn is seconds
// until access-token expiry.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"`
}

// AuthResult is the payload of successful login/register/link calls.
type AuthResult struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// NonceChallenge is the single-use sign-in challenge. Message is the full
// human-readable text the wallet must sign; Nonce is embedded within it.
type NonceChallenge struct {
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
}

// WalletAuthRequest carries a signed challenge back to the backend.
type WalletAuthRequest struct {
	WalletAddress string `json:"walletAddress"`
	Nonce         string `json:"nonce"`
	Message       string `json:"message"`
	Signature     string `json:"signature"`
	ChainID       int64  `json:"chainId"`
	Bio           string `json:"bio,omitempty"`
}

// Instructor is the course author embedded in course payloads.
type Instructor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Course is the marketplace course record, reduced to the fields the
// purchase and metadata flows consume.
type Course struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Type              string     `json:"type"` // "video" or "document"
	Description       string     `json:"description,omitempty"`
	Thumbnail         string     `json:"thumbnail,omitempty"`
	Price             float64    `json:"price"` // USD
	Level             string     `json:"level,omitempty"`
	Instructor        Instructor `json:"instructor"`
	SoldCount         int64      `json:"soldCount"`
	AvailableQuantity int64      `json:"availableQuantity,omitempty"` // 0 = unlimited
	IsPublished       bool       `json:"isPublished"`
	IsAvailable       bool       `json:"isAvailable"`
	AccessDuration    int64      `json:"accessDuration,omitempty"` // days, 0 = lifetime
	TokenToPayWith    []string   `json:"tokenToPayWith,omitempty"` // "SYMBOL-chainID" keys
	CreatedAt         time.Time  `json:"createdAt,omitempty"`
}

// ConfirmPurchaseRequest reconciles an on-chain purchase with the backend's
// order and access records.
type ConfirmPurchaseRequest struct {
	CourseID    string `json:"courseId"`
	TxHash      string `json:"transactionHash"`
	ChainID     int64  `json:"chainId"`
	TokenSymbol string `json:"tokenSymbol"`
	NFTTokenID  string `json:"nftTokenId,omitempty"`
	MetadataURI string `json:"metadataUri,omitempty"`
}

// ConfirmPurchaseResult reports the backend's view of the reconciled order.
type ConfirmPurchaseResult struct {
	OrderID       string `json:"orderId"`
	AccessGranted bool   `json:"accessGranted"`
}

// Review is a course review record.
type Review struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
