// Package service holds the business logic between the controllers and the
// database: user accounts, items, reviews and replies.
package service

import (
	"errors"

	"github.com/cinelog/cinelog/database"
	"github.com/cinelog/cinelog/database/model"
	"github.com/cinelog/cinelog/logger"
	"github.com/cinelog/cinelog/util/crypto"

	"gorm.io/gorm"
)

var (
	ErrEmailTaken       = errors.New("this email address is already in use")
	ErrWithdrawalFailed = errors.New("the withdrawal could not be completed")
)

type UserService struct{}

// CheckUser verifies the credentials and returns the matching user, or nil
// when either the email is unknown or the password does not match. The two
// failure cases are indistinguishable to the caller on purpose.
func (s *UserService) CheckUser(email, password string) *model.User {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("email = ?", email).
		First(user).
		Error
	if err == gorm.ErrRecordNotFound {
		return nil
	} else if err != nil {
		logger.Warning("check user err:", err)
		return nil
	}

	if !crypto.CheckPasswordHash(user.Password, password) {
		return nil
	}

	return user
}

func (s *UserService) GetUser(id int) (*model.User, error) {
	db := database.GetDB()

	user := &model.User{}
	err := db.First(user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates a member account inside a transaction. The duplicate
// email pre-check and the insert share the transaction so no user row can
// survive a failure of a later step.
func (s *UserService) Register(name, email, pass, prof, imageName string) (*model.User, error) {
	hash, err := crypto.HashPasswordAsBcrypt(pass)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Prof:     prof,
		Image:    imageName,
		Role:     model.RoleMember,
	}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the edit form with a dynamically built update set:
// password and image only enter the statement when actually supplied.
// Returns the previous image name so the caller can delete the replaced
// file after the transaction has committed.
func (s *UserService) UpdateProfile(id int, name, email, prof, pass, imageName string) (oldImage string, err error) {
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		oldImage = user.Image

		// Another account may not already hold the new address.
		var count int64
		if err := tx.Model(model.User{}).Where("email = ? AND id <> ?", email, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}

		updates := map[string]any{
			"name":  name,
			"email": email,
			"prof":  prof,
		}
		if pass != "" {
			hash, err := crypto.HashPasswordAsBcrypt(pass)
			if err != nil {
				return err
			}
			updates["password"] = hash
		}
		if imageName != "" {
			updates["image"] = imageName
		}

		return tx.Model(model.User{}).Where("id = ?", id).Updates(updates).Error
	})
	return oldImage, err
}

// ResetAdminPassword sets a new password on the first admin account. Used
// from the command line when the panel password was lost.
func (s *UserService) ResetAdminPassword(password string) error {
	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return err
	}

	db := database.GetDB()

	var admin model.User
	if err := db.Where("role = ?", model.RoleAdmin).Order("id").First(&admin).Error; err != nil {
		return err
	}
	return db.Model(model.User{}).Where("id = ?", admin.Id).Update("password", hash).Error
}

// DeleteAccount removes the user row. Reviews and replies survive and render
// as written by a withdrawn user. Exactly one row must go; anything else is
// rolled back and reported as a failure.
func (s *UserService) DeleteAccount(id int) error {
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&model.User{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return ErrWithdrawalFailed
		}
		return nil
	})
}
