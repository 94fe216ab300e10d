// Package processor contains the core business logic for processing study
// words. It orchestrates CEFR level classification, audio generation, image
// downloading, translation, phonetic scoring, and Anki file generation. This
// package serves as the main coordinator between all other components.
package processor
