package dto

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type CategoryResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
