// Package translation provides study-language to English translation
// services using the OpenAI API. It includes translation caching for batch
// operations and file persistence for translated words.
package translation
