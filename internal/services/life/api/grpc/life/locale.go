package life

import (
	"context"
	"strings"

	apperrors "github.com/louisbranch/life/internal/platform/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"google.golang.org/grpc/metadata"
)

// Locales error details can be written in; the first is the fallback.
var supportedLocales = []language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.BrazilianPortuguese,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// userMessages holds the caller-facing text per error code, one entry per
// supported locale in supportedLocales order.
var userMessages = map[apperrors.Code][3]string{
	apperrors.CodeBoardInvalidDimensions: {
		"Board width and height must be positive.",
		"Board width and height must be positive.",
		"A largura e a altura do tabuleiro devem ser positivas.",
	},
	apperrors.CodeBoardInvalidPosition: {
		"That cell is outside the board.",
		"That cell is outside the board.",
		"Essa célula está fora do tabuleiro.",
	},
	apperrors.CodeBoardPatchOutOfBounds: {
		"The pattern does not fit on the board at that position; try centering it.",
		"The pattern does not fit on the board at that position; try centring it.",
		"O padrão não cabe no tabuleiro nessa posição; tente centralizá-lo.",
	},
	apperrors.CodeBoardDimensionMismatch: {
		"The cell data does not match the board size.",
		"The cell data does not match the board size.",
		"Os dados das células não correspondem ao tamanho do tabuleiro.",
	},
	apperrors.CodePatternMalformed: {
		"The pattern could not be read; rows must use only X and - and have equal length.",
		"The pattern could not be read; rows must use only X and - and have equal length.",
		"Não foi possível ler o padrão; as linhas devem usar apenas X e - e ter o mesmo comprimento.",
	},
	apperrors.CodePatternTooLarge: {
		"The pattern is larger than the board.",
		"The pattern is larger than the board.",
		"O padrão é maior que o tabuleiro.",
	},
	apperrors.CodeScriptFailed: {
		"The seed script failed.",
		"The seed script failed.",
		"O script inicial falhou.",
	},
	apperrors.CodeSimulationClosed: {
		"The simulation is shutting down.",
		"The simulation is shutting down.",
		"A simulação está sendo encerrada.",
	},
}

func init() {
	for code, texts := range userMessages {
		for i, tag := range supportedLocales {
			_ = message.SetString(tag, string(code), texts[i])
		}
	}
}

// localeFromContext picks the error-detail locale from the caller's
// accept-language metadata.
func localeFromContext(ctx context.Context) language.Tag {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return supportedLocales[0]
	}
	values := md.Get("accept-language")
	if len(values) == 0 {
		return supportedLocales[0]
	}
	tags, _, err := language.ParseAcceptLanguage(strings.Join(values, ","))
	if err != nil || len(tags) == 0 {
		return supportedLocales[0]
	}
	_, index, _ := localeMatcher.Match(tags...)
	return supportedLocales[index]
}

// userMessage renders the caller-facing text for err in tag. Codes without
// catalog text fall back to the internal message.
func userMessage(tag language.Tag, err *apperrors.Error) string {
	if _, ok := userMessages[err.Code]; !ok {
		return err.Message
	}
	return message.NewPrinter(tag).Sprintf(string(err.Code))
}
