// Package phonetic provides IPA transcription and pronunciation scoring
// for study words. Reference transcriptions come from espeak-ng when
// installed, with OpenAI's GPT models as a fallback; learner recordings
// are transcribed with Whisper and scored against the reference by
// phoneme edit distance.
package phonetic
