package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"compucobano/internal/domain"
)

var errUnknownAction = errors.New("invalid action")

// AdminAction is one admin mutation request. The set is closed: only the
// types in this file implement it.
type AdminAction interface {
	actionName() string
}

type createProductAction struct {
	input domain.ProductInput
}

type createCategoryAction struct {
	input domain.CategoryInput
}

type updateProductAction struct {
	id    string
	patch domain.ProductPatch
}

type updateCategoryAction struct {
	id    int64
	patch domain.CategoryPatch
}

type deleteProductAction struct {
	id string
}

type deleteCategoryAction struct {
	id int64
}

func (createProductAction) actionName() string  { return "create_product" }
func (createCategoryAction) actionName() string { return "create_category" }
func (updateProductAction) actionName() string  { return "update_product" }
func (updateCategoryAction) actionName() string { return "update_category" }
func (deleteProductAction) actionName() string  { return "delete_product" }
func (deleteCategoryAction) actionName() string { return "delete_category" }

// targetPayload is the {id, data} shape of update and delete actions.
type targetPayload struct {
	ID   domain.Scalar   `json:"id"`
	Data json.RawMessage `json:"data"`
}

// parseAdminAction turns the wire envelope into its typed variant.
func parseAdminAction(action string, data json.RawMessage) (AdminAction, error) {
	switch strings.TrimSpace(action) {
	case "create_product":
		var a createProductAction
		if err := decodePayload(data, &a.input); err != nil {
			return nil, err
		}
		return a, nil

	case "create_category":
		var a createCategoryAction
		if err := decodePayload(data, &a.input); err != nil {
			return nil, err
		}
		return a, nil

	case "update_product":
		target, err := decodeTarget(data, true)
		if err != nil {
			return nil, err
		}
		a := updateProductAction{id: string(target.ID)}
		if err := decodePayload(target.Data, &a.patch); err != nil {
			return nil, err
		}
		return a, nil

	case "update_category":
		target, err := decodeTarget(data, true)
		if err != nil {
			return nil, err
		}
		id, err := categoryID(target.ID)
		if err != nil {
			return nil, err
		}
		a := updateCategoryAction{id: id}
		if err := decodePayload(target.Data, &a.patch); err != nil {
			return nil, err
		}
		return a, nil

	case "delete_product":
		target, err := decodeTarget(data, false)
		if err != nil {
			return nil, err
		}
		return deleteProductAction{id: string(target.ID)}, nil

	case "delete_category":
		target, err := decodeTarget(data, false)
		if err != nil {
			return nil, err
		}
		id, err := categoryID(target.ID)
		if err != nil {
			return nil, err
		}
		return deleteCategoryAction{id: id}, nil

	default:
		return nil, errUnknownAction
	}
}

func decodePayload(data json.RawMessage, v interface{}) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return domain.NewValidationError("data", "data is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return domain.NewValidationError("data", "data has an invalid shape")
	}
	return nil
}

func decodeTarget(data json.RawMessage, needsData bool) (targetPayload, error) {
	var target targetPayload
	if err := decodePayload(data, &target); err != nil {
		return target, err
	}
	if target.ID.Blank() {
		return target, domain.NewValidationError("id", "id is required")
	}
	if needsData && len(bytes.TrimSpace(target.Data)) == 0 {
		return target, domain.NewValidationError("data", "data is required")
	}
	return target, nil
}

func categoryID(raw domain.Scalar) (int64, error) {
	id, err := raw.Int()
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "category id must be a positive integer")
	}
	return id, nil
}
