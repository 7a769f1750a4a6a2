package profile

import (
	"encoding/json"
	"fmt"
	"time"

	"probaho-server/internal/domain/mfs"
	"probaho-server/internal/domain/schema"
)

// User ユーザープロフィール
type User struct {
	ID          string
	PhoneNumber string
	Email       *string
	FirstName   string
	LastName    string
	IsVerified  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type userRecord struct {
	ID          string  `json:"id"`
	PhoneNumber string  `json:"phoneNumber"`
	Email       *string `json:"email,omitempty"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	IsVerified  bool    `json:"isVerified"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// FullName 氏名を返す
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Validate ユーザー情報を検証
func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidUser)
	}
	if u.FirstName == "" {
		return fmt.Errorf("%w: firstName is required", ErrInvalidUser)
	}
	if err := mfs.ValidatePhoneNumber(u.PhoneNumber); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidUser, err)
	}
	return nil
}

// MarshalJSON 保存形式のJSONに変換
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userRecord{
		ID:          u.ID,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsVerified:  u.IsVerified,
		CreatedAt:   schema.FormatTime(u.CreatedAt),
		UpdatedAt:   schema.FormatTime(u.UpdatedAt),
	})
}

// EncodeUser 保存形式に変換
func EncodeUser(u User) ([]byte, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u.MarshalJSON()
}

// DecodeUser 保存形式から検証付きで復元
func DecodeUser(data []byte) (User, error) {
	o, err := schema.ParseObject(data)
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidUser, err)
	}
	var u User
	fail := func(err error) (User, error) {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidUser, err)
	}
	if u.ID, err = o.String("id"); err != nil {
		return fail(err)
	}
	if u.PhoneNumber, err = o.String("phoneNumber"); err != nil {
		return fail(err)
	}
	if u.Email, err = o.OptionalString("email"); err != nil {
		return fail(err)
	}
	if u.FirstName, err = o.String("firstName"); err != nil {
		return fail(err)
	}
	if u.LastName, err = o.String("lastName"); err != nil {
		return fail(err)
	}
	if u.IsVerified, err = o.Bool("isVerified"); err != nil {
		return fail(err)
	}
	if u.CreatedAt, err = o.Time("createdAt"); err != nil {
		return fail(err)
	}
	if u.UpdatedAt, err = o.Time("updatedAt"); err != nil {
		return fail(err)
	}
	if err := u.Validate(); err != nil {
		return User{}, err
	}
	return u, nil
}
