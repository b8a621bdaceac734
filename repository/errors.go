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

package repository

import "errors"

var (
	// ErrInvalidState is returned when strict mode rejects a row before any
	// statement is issued.
	ErrInvalidState = errors.New("invalid state: wrong model")

	// ErrNotFound is returned by FindUniqueBy when nothing matches.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguousResult is returned by FindUniqueBy when several rows match.
	ErrAmbiguousResult = errors.New("more than one row matched")

	// ErrEmptyCondition guards UpdateBy and DeleteBy against touching every
	// row of the table.
	ErrEmptyCondition = errors.New("empty condition")

	// ErrMissingKey is returned when a batch row lacks its key column.
	ErrMissingKey = errors.New("missing key value")
)
