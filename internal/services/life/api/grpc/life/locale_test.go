package life

import (
	"context"
	"testing"

	"github.com/louisbranch/life/internal/core/board"
	apperrors "github.com/louisbranch/life/internal/platform/errors"
	"golang.org/x/text/language"
	"google.golang.org/grpc/metadata"
)

func TestLocaleFromContext(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   string
	}{
		{name: "no metadata", want: "en-US"},
		{name: "british", header: []string{"en-GB,en;q=0.8"}, want: "en-GB"},
		{name: "american", header: []string{"en-US"}, want: "en-US"},
		{name: "portuguese", header: []string{"pt-BR,pt;q=0.9"}, want: "pt-BR"},
		{name: "unsupported falls back", header: []string{"ja-JP"}, want: "en-US"},
		{name: "malformed falls back", header: []string{"en;q=bogus"}, want: "en-US"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.header != nil {
				ctx = metadata.NewIncomingContext(ctx, metadata.MD{"accept-language": tt.header})
			}
			if got := localeFromContext(ctx).String(); got != tt.want {
				t.Fatalf("locale = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	patchErr := board.ErrPatchOutOfBounds
	tests := []struct {
		name string
		tag  language.Tag
		err  *apperrors.Error
		want string
	}{
		{name: "american", tag: language.AmericanEnglish, err: patchErr, want: "The pattern does not fit on the board at that position; try centering it."},
		{name: "british", tag: language.BritishEnglish, err: patchErr, want: "The pattern does not fit on the board at that position; try centring it."},
		{name: "portuguese", tag: language.BrazilianPortuguese, err: board.ErrInvalidPosition, want: "Essa célula está fora do tabuleiro."},
		{name: "unknown code keeps internal message", tag: language.BritishEnglish, err: apperrors.New(apperrors.CodeUnknown, "boom"), want: "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := userMessage(tt.tag, tt.err); got != tt.want {
				t.Fatalf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEveryCodeHasUserMessages(t *testing.T) {
	for code, texts := range userMessages {
		for i, text := range texts {
			if text == "" {
				t.Fatalf("%s has no text for %s", code, supportedLocales[i])
			}
		}
	}
}
