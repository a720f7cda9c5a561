package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Ingredient is one entry of a recipe's ingredient list. On the wire it is
// either a bare string ("Water") or an object ({"name":"Water",
// "quantity":"1 l"}); both forms decode into this type.
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
}

func (i *Ingredient) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		i.Name = s
		i.Quantity = ""
		return nil
	}

	type ingredient Ingredient
	var obj ingredient
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*i = Ingredient(obj)
	return nil
}

// MarshalJSON emits the bare-string form when there is no quantity, so the
// common case round-trips the way it arrived.
func (i Ingredient) MarshalJSON() ([]byte, error) {
	if i.Quantity == "" {
		return json.Marshal(i.Name)
	}
	type ingredient Ingredient
	return json.Marshal(ingredient(i))
}

// Empty reports whether the entry carries no ingredient name.
func (i Ingredient) Empty() bool {
	return strings.TrimSpace(i.Name) == ""
}

// FilterIngredients drops blank entries, preserving order.
func FilterIngredients(in []Ingredient) []Ingredient {
	out := make([]Ingredient, 0, len(in))
	for _, ing := range in {
		if ing.Empty() {
			continue
		}
		out = append(out, ing)
	}
	return out
}

// Recipe is the persisted entity. ID, UserID and CreatedAt are assigned by
// the repository at creation and never change afterwards.
type Recipe struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions string       `json:"instructions"`
	Calories     int          `json:"calories"`
	Tags         []string     `json:"tags"`
	Image        string       `json:"image,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// RecipeDraft is the client payload for creating a recipe. Ownership fields
// are absent on purpose: the server assigns them.
type RecipeDraft struct {
	Title        string       `json:"title" binding:"required"`
	Description  string       `json:"description" binding:"required"`
	Ingredients  []Ingredient `json:"ingredients" binding:"required"`
	Instructions string       `json:"instructions" binding:"required"`
	Calories     int          `json:"calories" binding:"gte=0"`
	Tags         []string     `json:"tags"`
	Image        string       `json:"image"`
}

// RecipePatch is a partial update. Nil fields are left untouched by the
// merge; id, userId and createdAt have no counterpart here, so a payload
// that sets them is silently ignored on those fields.
type RecipePatch struct {
	Title        *string       `json:"title"`
	Description  *string       `json:"description"`
	Ingredients  *[]Ingredient `json:"ingredients"`
	Instructions *string       `json:"instructions"`
	Calories     *int          `json:"calories"`
	Tags         *[]string     `json:"tags"`
	Image        *string       `json:"image"`
}

// Apply merges the patch onto the recipe. Ingredients are filtered for
// blanks the same way creation filters them.
func (p RecipePatch) Apply(r *Recipe) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Ingredients != nil {
		r.Ingredients = FilterIngredients(*p.Ingredients)
	}
	if p.Instructions != nil {
		r.Instructions = *p.Instructions
	}
	if p.Calories != nil {
		r.Calories = *p.Calories
	}
	if p.Tags != nil {
		r.Tags = *p.Tags
	}
	if p.Image != nil {
		r.Image = *p.Image
	}
}
