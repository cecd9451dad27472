// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package finders contains the locator finders for stored builds and test
// occurrences.
//
// Each finder is a finder.Source over a storage repository. The engine in
// package finder handles paging, logical dimensions and error reporting; the
// sources here only know how to narrow candidates and match single items.
//
// Build locators:
//
//	id:42
//	buildType:Core_Tests,status:FAILURE,count:10
//	or:(branch:main,branch:release),pinned:true
//	1.2.345                            (build number or id)
//
// Test occurrence locators:
//
//	build:(buildType:Core_Tests,count:1),status:FAILURE
//	build:(id:42),not:(muted:true)
//	test:8231923411,unique:true
package finders
