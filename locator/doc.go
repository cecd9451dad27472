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


// Package locator parses the compact query strings used to address collections.
//
// A locator is either a single value ("42", "main") or a comma-separated list of
// named dimensions ("buildType:Core,status:FAILURE,count:10"). A dimension value
// may itself be a locator when wrapped in parentheses:
//
//	build:(buildType:Core,branch:main),status:FAILURE
//
// Values that need characters reserved by the grammar can be passed as
// "$base64:<payload>"; they are decoded while parsing. The literal "$help"
// requests the list of dimensions supported by the consumer instead of a lookup.
//
// A Locator records which dimensions were read by its consumer so that unknown
// or ignored dimensions can be reported once processing is complete.
package locator
