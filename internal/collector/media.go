package collector

import (
	"context"
	"fmt"

	"github.com/dbsmedya/gounveil/internal/logger"
	"github.com/dbsmedya/gounveil/internal/types"
)

// Built-in media models.
const (
	DefaultImageModel    = "wagtailimages.image"
	DefaultDocumentModel = "wagtaildocs.document"
)

// MediaResolver picks the concrete model behind images and documents.
// Installations may swap either model; malformed or unknown overrides fall
// back to the built-in model.
type MediaResolver struct {
	reg       Registry
	overrides map[types.Kind]string
	log       *logger.Logger
}

// NewMediaResolver creates a MediaResolver from the configured override keys.
// Empty keys mean "use the built-in model".
func NewMediaResolver(reg Registry, imageModel, documentModel string, log *logger.Logger) *MediaResolver {
	if log == nil {
		log = logger.NewDefault()
	}
	return &MediaResolver{
		reg: reg,
		overrides: map[types.Kind]string{
			types.KindImage:    imageModel,
			types.KindDocument: documentModel,
		},
		log: log,
	}
}

// Active returns the descriptor of the model in use for kind.
func (m *MediaResolver) Active(ctx context.Context, kind types.Kind) types.Descriptor {
	def := DefaultImageModel
	if kind == types.KindDocument {
		def = DefaultDocumentModel
	}

	if key := m.overrides[kind]; key != "" && key != def {
		d, ok := m.reg.Resolve(ctx, key, kind)
		switch {
		case !ok:
			m.log.Warnw("malformed media model override, using default", "kind", kind, "model", key, "default", def)
		case d.ID == 0:
			m.log.Warnw("unknown media model override, using default", "kind", kind, "model", key, "default", def)
		default:
			d.Source.LabelColumn = "title"
			return d
		}
	}

	d, _ := m.reg.Resolve(ctx, def, kind)
	d.Source.LabelColumn = "title"
	return d
}

// MediaCollector emits entries for images or documents.
type MediaCollector struct {
	env      Env
	kind     types.Kind
	resolver *MediaResolver
}

// NewImageCollector creates the image collector.
func NewImageCollector(env Env, resolver *MediaResolver) *MediaCollector {
	return &MediaCollector{env: env, kind: types.KindImage, resolver: resolver}
}

// NewDocumentCollector creates the document collector.
func NewDocumentCollector(env Env, resolver *MediaResolver) *MediaCollector {
	return &MediaCollector{env: env, kind: types.KindDocument, resolver: resolver}
}

func (c *MediaCollector) Name() string {
	if c.kind == types.KindDocument {
		return "documents"
	}
	return "images"
}

func (c *MediaCollector) Collect(ctx context.Context) []types.URLEntry {
	log := c.env.logger(c.Name())
	d := c.resolver.Active(ctx, c.kind)
	base := c.env.Builder.AdminURL(c.Name() + "/")

	urls := recordURLs{
		list:   base,
		edit:   func(id int64) string { return fmt.Sprintf("%s%d/", base, id) },
		delete: func(id int64) string { return fmt.Sprintf("%s%d/delete/", base, id) },
	}
	if c.kind == types.KindDocument {
		urls.edit = func(id int64) string { return fmt.Sprintf("%sedit/%d/", base, id) }
		urls.delete = func(id int64) string { return fmt.Sprintf("%sdelete/%d/", base, id) }
	}
	return c.env.collectRecords(ctx, log, d, urls)
}
