package uploader

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/quantmind-br/wikiport/internal/domain"
	"github.com/quantmind-br/wikiport/internal/state"
	"github.com/quantmind-br/wikiport/internal/utils"
)

// tokenPattern matches attachment reference tokens embedded in page bodies:
// `{attachments/<pageID>/<file>}` with an optional query suffix carrying
// display hints, e.g. `{attachments/123/diagram.png?width=760}`. Group 1 is
// the bare token without braces or query.
var tokenPattern = regexp.MustCompile(`\{(attachments/[^}?]+)(?:\?[^}]*)?\}`)

// AttachmentPipeline uploads page-owned binaries and rewrites reference
// tokens in page bodies into links at the remote attachment endpoint.
type AttachmentPipeline struct {
	api      domain.API
	store    *state.Store
	docs     *DocumentSyncer
	executor *Executor
	logger   *utils.Logger
}

// AttachmentPipelineOptions contains options for creating an AttachmentPipeline
type AttachmentPipelineOptions struct {
	API      domain.API
	Store    *state.Store
	Docs     *DocumentSyncer
	Executor *Executor
	Logger   *utils.Logger
}

// NewAttachmentPipeline creates a new AttachmentPipeline
func NewAttachmentPipeline(opts AttachmentPipelineOptions) *AttachmentPipeline {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &AttachmentPipeline{
		api:      opts.API,
		store:    opts.Store,
		docs:     opts.Docs,
		executor: opts.Executor,
		logger:   logger.WithComponent("attachment"),
	}
}

// Upload pushes one binary to the remote, bound to its owning page's
// document. The owning page must already be created; uploads are never
// repeated once committed, regardless of force.
func (p *AttachmentPipeline) Upload(ctx context.Context, spaceKey string, att *domain.Attachment, documentID string) (Outcome, error) {
	if att.Uploaded {
		p.logger.Debug().Str("space", spaceKey).Str("token", att.Token).Msg("Attachment already uploaded, skipping")
		return OutcomeSkipped, nil
	}

	var ref *domain.AttachmentRef
	err := p.executor.Do(ctx, "attachments.create", func() error {
		var opErr error
		ref, opErr = p.api.UploadAttachment(ctx, documentID, att.LocalPath, att.FileName)
		return opErr
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("upload attachment %s: %w", att.FileName, err)
	}

	att.RemoteID = ref.ID
	att.Uploaded = true

	if err := p.store.SetAttachment(spaceKey, att.Token, state.AttachmentState{
		RemoteID: ref.ID,
		Uploaded: true,
	}); err != nil {
		return OutcomeFailed, fmt.Errorf("commit attachment %s: %w", att.Token, err)
	}

	p.logger.Info().
		Str("space", spaceKey).
		Str("token", att.Token).
		Str("attachment_id", ref.ID).
		Msg("Attachment uploaded")
	return OutcomeUploaded, nil
}

// ResolvePage rewrites the page body's reference tokens into remote links,
// appends an index of uploaded-but-unlinked attachments the page owns, and
// pushes the result in a single document update. Nothing is pushed when the
// resolved body matches what the remote already has.
func (p *AttachmentPipeline) ResolvePage(ctx context.Context, sp *domain.Space, page *domain.Page) error {
	body, unresolved := p.resolveTokens(sp, page.Body)
	body = p.appendUnlinked(body, page.Body, sp.AttachmentsForPage(page.LocalID))

	if unresolved > 0 {
		p.logger.Warn().
			Str("space", sp.Key).
			Str("page", page.LocalID).
			Int("unresolved", unresolved).
			Msg("Leaving unresolved attachment tokens in place")
	}

	if utils.HashDocument(page.Title, body) == page.ContentHash {
		return nil
	}
	if err := p.docs.Push(ctx, sp.Key, page, body); err != nil {
		return err
	}
	p.logger.Debug().Str("space", sp.Key).Str("page", page.LocalID).Msg("Attachment links resolved")
	return nil
}

// resolveTokens replaces every token whose attachment has been uploaded with
// a markdown image link at the attachment endpoint, carrying over alt text
// and size hints from the export. Tokens for missing or not-yet-uploaded
// attachments are left literal and counted.
func (p *AttachmentPipeline) resolveTokens(sp *domain.Space, body string) (string, int) {
	byToken := make(map[string]*domain.Attachment, len(sp.Attachments))
	for _, a := range sp.Attachments {
		byToken[a.Token] = a
	}

	unresolved := 0
	out := tokenPattern.ReplaceAllStringFunc(body, func(match string) string {
		token := tokenPattern.FindStringSubmatch(match)[1]
		att, ok := byToken[token]
		if !ok || !att.Uploaded {
			unresolved++
			return match
		}
		return p.markdownLink(att)
	})
	return out, unresolved
}

// markdownLink renders the replacement for one resolved token.
func (p *AttachmentPipeline) markdownLink(att *domain.Attachment) string {
	url := fmt.Sprintf("%s?id=%s", p.api.AttachmentEndpoint(), att.RemoteID)
	if att.AltText == "" && att.SizeDirective == "" {
		return fmt.Sprintf("![](%s)", url)
	}
	if att.SizeDirective == "" {
		return fmt.Sprintf("![%s](%s)", att.AltText, url)
	}
	return fmt.Sprintf("![%s](%s %q)", att.AltText, url, att.SizeDirective)
}

// appendUnlinked adds an index section for uploaded attachments the page owns
// but never references in its body, so files from the export remain
// reachable. A body from a previous run references the attachment by remote
// identifier rather than token, so both count as linked.
func (p *AttachmentPipeline) appendUnlinked(body, originalBody string, owned []*domain.Attachment) string {
	var unlinked []*domain.Attachment
	for _, a := range owned {
		linked := strings.Contains(originalBody, a.Token) ||
			(a.RemoteID != "" && strings.Contains(originalBody, a.RemoteID))
		if a.Uploaded && !linked {
			unlinked = append(unlinked, a)
		}
	}
	if len(unlinked) == 0 {
		return body
	}

	var b strings.Builder
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n## Attachments\n\n")
	for _, a := range unlinked {
		if a.MimeType != "" {
			fmt.Fprintf(&b, "- [%s](%s?id=%s) (%s)\n", a.FileName, p.api.AttachmentEndpoint(), a.RemoteID, a.MimeType)
		} else {
			fmt.Fprintf(&b, "- [%s](%s?id=%s)\n", a.FileName, p.api.AttachmentEndpoint(), a.RemoteID)
		}
	}
	return b.String()
}
