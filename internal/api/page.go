package api

import (
	"milk2meat/internal/utils"
)

type Page[T any] struct {
	TotalElements int      `json:"totalElements"`
	TotalPages    int      `json:"totalPages"`
	Content       []T      `json:"content"`
	Pageable      Pageable `json:"pageable"`
}

// NewPage wraps content as page pageable of totalElements elements.
func NewPage[T any](content []T, pageable Pageable, totalElements int) Page[T] {
	if content == nil {
		content = []T{}
	}
	return Page[T]{
		Content:       content,
		Pageable:      pageable,
		TotalElements: totalElements,
		TotalPages:    utils.CalculateTotalPages(totalElements, pageable.PageSize),
	}
}

// Pageable addresses one page. PageNumber starts at 0.
type Pageable struct {
	PageNumber int  `json:"pageNumber"`
	PageSize   int  `json:"pageSize"`
	Sort       Sort `json:"sort"`
}

// Offset returns the index of the first element on the page.
func (p Pageable) Offset() int {
	return p.PageNumber * p.PageSize
}

// NewPageable parses a 1-based page query parameter; anything unparsable or
// below 1 yields the first page.
func NewPageable(page string, pageSize int) Pageable {
	number := utils.ParsePositiveInt(page, 1)
	return Pageable{PageNumber: number - 1, PageSize: pageSize, Sort: NewSort(nil)}
}

type Sort struct {
	defaultDirection Direction `json:"-"`
	Orders           []Order   `json:"orders"`
}

func (s *Sort) DefaultDirection() Direction {
	return s.defaultDirection
}

func NewSort(orders []Order) Sort {
	if orders == nil {
		orders = []Order{}
	}
	return Sort{defaultDirection: ASC, Orders: orders}
}

type Order struct {
	Property  string    `json:"property"`
	Direction Direction `json:"direction"`
}

type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)
