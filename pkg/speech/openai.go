package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/openai/openai-go"
)

// OpenAI synthesizes through the OpenAI speech endpoint. The model infers
// the language from the text.
type OpenAI struct {
	Client *openai.Client

	// Model defaults to tts-1.
	Model string

	// Voice defaults to alloy.
	Voice string
}

var _ Synthesizer = (*OpenAI)(nil)

// Synthesize implements Synthesizer.
func (o *OpenAI) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	model := o.Model
	if model == "" {
		model = string(openai.SpeechModelTTS1)
	}
	voice := o.Voice
	if voice == "" {
		voice = string(openai.AudioSpeechNewParamsVoiceAlloy)
	}
	resp, err := o.Client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          req.Text,
		Model:          openai.SpeechModel(model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech: openai status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
