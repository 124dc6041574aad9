package providers

import (
	"github.com/webchatkit/webchatkit/internal/providers/email"
	"github.com/webchatkit/webchatkit/internal/providers/llm"
	"github.com/webchatkit/webchatkit/internal/providers/speech"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	llm.Module,
	speech.Module,
	email.Module,
)
