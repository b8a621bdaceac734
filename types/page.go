/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

const defaultPageSize = 10

// PageRequest selects one page of a result set. Pages are numbered from 1.
type PageRequest struct {
	Page     int
	PageSize int
}

func (p PageRequest) GetPageSize() int {
	if p.PageSize < 1 {
		return defaultPageSize
	}
	return p.PageSize
}

func (p PageRequest) GetPage() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

func (p PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// Pagination holds one page of rows along with the total match count.
type Pagination struct {
	Page     int
	PageSize int
	Total    int
	Items    []Row
}

// NewPagination returns an empty page for req.
func NewPagination(req PageRequest) *Pagination {
	return &Pagination{Page: req.GetPage(), PageSize: req.GetPageSize(), Items: make([]Row, 0)}
}
