package driver

import (
	"os"
	"strings"

	"cppcore/internal/check"
	"cppcore/internal/diag"
	"cppcore/internal/macro"
	"cppcore/internal/preproc"
	"cppcore/internal/settings"
	"cppcore/internal/srcnorm"
	"cppcore/internal/toklist"
	"cppcore/internal/valueflow"
)

// NewPipeline builds an AnalyzeFunc that runs one CTU through every
// core stage in order (spec.md section 2, "System Overview"'s three
// numbered steps): normalize, tokenize, split into configurations,
// run the value-flow engine over each, then run every registered
// check against each resulting configuration.
func NewPipeline(st settings.Settings, resolver preproc.IncludeResolver) AnalyzeFunc {
	return func(ctu CTU, registry *check.Registry, logger check.ErrorLogger) map[string]check.FileInfo {
		content := ctu.Content
		if content == "" {
			data, err := os.ReadFile(ctu.Path)
			if err != nil {
				logger.Report(diag.Diagnostic{
					ID:       "fileOpenError",
					Severity: diag.SeverityError,
					Message:  "could not read " + ctu.Path + ": " + err.Error(),
					Primary:  diag.Location{File: ctu.Path},
				})
				return nil
			}
			content = string(data)
		}

		norm := srcnorm.Simplify(content, ctu.Path)
		for _, e := range norm.Errors {
			logger.Report(diag.Diagnostic{
				ID:       "syntaxError",
				Severity: diag.SeverityError,
				Message:  e.Message,
				Primary:  diag.Location{File: ctu.Path, Line: e.Line, Column: e.Column},
			})
		}
		suppressions := settings.NewSuppressionList()
		for _, s := range norm.Suppressions {
			suppressions.Add(settings.Suppression{ID: s.ID, File: ctu.Path, Line: s.Line})
		}

		l := toklist.New()
		l.Tokenize(norm.Source, ctu.Path, 0)
		l.UniformizeIfs()
		l.CreateLinkage()

		initial := macro.New()
		for _, d := range st.UserDefines {
			name, body, hasBody := strings.Cut(d, "=")
			if !hasBody {
				body = "1"
			}
			initial.Define(name, body)
		}
		for _, u := range st.UserUndefs {
			initial.Undefine(u)
		}

		result := preproc.GetConfigurations(l, initial, preproc.Options{
			MaxConfigs: st.MaxConfigs,
			Includes:   resolver,
		})

		for _, d := range result.Diagnostics {
			logger.Report(diag.Diagnostic{
				ID:       d.Kind,
				Severity: diag.SeverityInformation,
				Message:  d.Message,
				Primary:  diag.Location{File: d.File, Line: d.Line},
			})
		}

		suppressingLogger := &filteredLogger{inner: logger, suppressions: suppressions}

		infos := make(map[string]check.FileInfo)
		for name, cfgTokens := range result.Configs {
			if !st.CheckAllConfigurations && name != "" && len(infos) > 0 {
				break // spec.md section 6: caller may restrict to the default configuration
			}

			valueflow.Run(cfgTokens)

			ctx := check.Context{
				File:          ctu.Path,
				Configuration: name,
				Tokens:        cfgTokens,
				Settings:      st,
				Logger:        suppressingLogger,
			}
			registry.Run(ctx)
			for k, v := range registry.CollectFileInfo(ctx) {
				infos[k] = v
			}
		}
		return infos
	}
}

// filteredLogger withholds any diagnostic the inline-suppression
// harvest (//cppcheck-suppress comments, spec.md section 6's
// "isSuppressed(id, file, line)" collaborator) matches before handing
// the rest to the real sink.
type filteredLogger struct {
	inner        check.ErrorLogger
	suppressions *settings.SuppressionList
}

func (f *filteredLogger) Report(d diag.Diagnostic) bool {
	if f.suppressions.IsSuppressed(d.ID, d.Primary.File, d.Primary.Line) {
		return false
	}
	return f.inner.Report(d)
}
