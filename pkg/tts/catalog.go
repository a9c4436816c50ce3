// Vendor voice catalogs.
//
// Both vendors ship multilingual voices; the language tags below mark the
// accent the voice was tuned for, which is what the directory's fallback
// chain cares about.
package tts

import "github.com/lexivox/speechkit/pkg/voices"

// OpenAI voice options.
const (
	VoiceAlloy   = "alloy"   // Neutral voice
	VoiceEcho    = "echo"    // Male voice
	VoiceFable   = "fable"   // British accent
	VoiceOnyx    = "onyx"    // Deep male voice
	VoiceNova    = "nova"    // Female voice
	VoiceShimmer = "shimmer" // Soft female voice
)

// Gemini voice options.
const (
	VoiceKore   = "Kore"   // Firm female voice
	VoicePuck   = "Puck"   // Upbeat male voice
	VoiceCharon = "Charon" // Informative male voice
	VoiceAoede  = "Aoede"  // Breezy female voice
	VoiceLeda   = "Leda"   // Youthful female voice
)

// openAIVoices is the OpenAI catalog.
var openAIVoices = []voices.Voice{
	{Identifier: VoiceAlloy, Name: "Alloy", Language: "en-US", Quality: voices.QualityDefault},
	{Identifier: VoiceEcho, Name: "Echo", Language: "en-US", Quality: voices.QualityDefault},
	{Identifier: VoiceFable, Name: "Fable", Language: "en-GB", Quality: voices.QualityEnhanced},
	{Identifier: VoiceOnyx, Name: "Onyx", Language: "en-US", Quality: voices.QualityEnhanced},
	{Identifier: VoiceNova, Name: "Nova", Language: "en-US", Quality: voices.QualityPremium},
	{Identifier: VoiceShimmer, Name: "Shimmer", Language: "en-US", Quality: voices.QualityPremium},
}

// geminiVoices is the Gemini catalog.
var geminiVoices = []voices.Voice{
	{Identifier: VoiceKore, Name: "Kore", Language: "en-US", Quality: voices.QualityPremium},
	{Identifier: VoicePuck, Name: "Puck", Language: "en-US", Quality: voices.QualityEnhanced},
	{Identifier: VoiceCharon, Name: "Charon", Language: "en-US", Quality: voices.QualityDefault},
	{Identifier: VoiceAoede, Name: "Aoede", Language: "en-GB", Quality: voices.QualityEnhanced},
	{Identifier: VoiceLeda, Name: "Leda", Language: "en-US", Quality: voices.QualityDefault},
}

// HasVoice reports whether id names a voice in the provider's catalog.
func HasVoice(p Provider, id string) bool {
	for _, v := range p.Voices() {
		if v.Identifier == id {
			return true
		}
	}
	return false
}
