// Package cefr classifies text to a CEFR proficiency level by dispatching
// the same prompt to several independently configured language models and
// resolving a plurality consensus over their votes.
package cefr
