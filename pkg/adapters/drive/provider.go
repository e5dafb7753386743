package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/sharewalk/internal/logging"
	"github.com/aretw0/sharewalk/pkg/domain"
	"golang.org/x/time/rate"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// FolderMimeType marks a Drive file as a container.
const FolderMimeType = "application/vnd.google-apps.folder"

const (
	fileFields googleapi.Field = "id,name,mimeType,owners(emailAddress),permissions(type,role,emailAddress,domain,allowFileDiscovery)"
	listFields googleapi.Field = "nextPageToken,files(id,name,mimeType,owners(emailAddress),permissions(type,role,emailAddress,domain,allowFileDiscovery))"
)

// Provider implements ports.TreeProvider and ports.SharingSource.
type Provider struct {
	svc     *drive.Service
	rootID  string
	limiter *rate.Limiter
	logger  *slog.Logger

	identityOnce sync.Once
	identity     string
	identityErr  error
}

// Option configures the Provider.
type Option func(*Provider)

// WithRootID starts the walk at a folder other than My Drive.
func WithRootID(id string) Option {
	return func(p *Provider) {
		p.rootID = id
	}
}

// WithRateLimit caps API calls per second. A zero limit disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(p *Provider) {
		if perSecond <= 0 {
			p.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New creates a Provider authenticated with a service account or OAuth
// credentials file.
func New(ctx context.Context, credentialsFile string, opts ...Option) (*Provider, error) {
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return NewFromService(svc, opts...), nil
}

// NewFromService wraps an existing Drive service.
func NewFromService(svc *drive.Service, opts ...Option) *Provider {
	p := &Provider{
		svc:    svc,
		rootID: "root",
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// Root returns the configured top folder.
func (p *Provider) Root(ctx context.Context) (domain.Node, error) {
	if err := p.wait(ctx); err != nil {
		return domain.Node{}, err
	}
	f, err := p.svc.Files.Get(p.rootID).
		Fields(fileFields).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return domain.Node{}, fmt.Errorf("%w: root %s", domain.ErrNodeNotFound, p.rootID)
		}
		return domain.Node{}, fmt.Errorf("get root folder: %w", err)
	}
	return toNode(f), nil
}

// Resolve follows folder names from the root. When several folders share a
// name the first by name order wins.
func (p *Provider) Resolve(ctx context.Context, segments []string) (domain.Node, error) {
	node, err := p.Root(ctx)
	if err != nil {
		return domain.Node{}, err
	}
	for _, name := range segments {
		if err := p.wait(ctx); err != nil {
			return domain.Node{}, err
		}
		q := fmt.Sprintf("%s and name = '%s'", childQuery(node.ID, true), escape(name))
		list, err := p.svc.Files.List().
			Q(q).
			PageSize(1).
			OrderBy("name").
			Fields(listFields).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx).
			Do()
		if err != nil {
			return domain.Node{}, fmt.Errorf("resolve %q: %w", name, err)
		}
		if len(list.Files) == 0 {
			return domain.Node{}, fmt.Errorf("%w: %q under %s", domain.ErrNodeNotFound, name, node.Name)
		}
		node = toNode(list.Files[0])
	}
	return node, nil
}

// ListItems returns the next non-folder file of parent.
func (p *Provider) ListItems(ctx context.Context, parent domain.Node, cursor domain.Cursor) (*domain.Node, *domain.Cursor, error) {
	return p.list(ctx, childQuery(parent.ID, false), cursor)
}

// ListContainers returns the next folder of parent.
func (p *Provider) ListContainers(ctx context.Context, parent domain.Node, cursor domain.Cursor) (*domain.Node, *domain.Cursor, error) {
	return p.list(ctx, childQuery(parent.ID, true), cursor)
}

func (p *Provider) list(ctx context.Context, q string, cursor domain.Cursor) (*domain.Node, *domain.Cursor, error) {
	if err := p.wait(ctx); err != nil {
		return nil, nil, err
	}
	call := p.svc.Files.List().
		Q(q).
		PageSize(1).
		OrderBy("folder,name").
		Fields(listFields).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)
	if cursor.Token != "" {
		call = call.PageToken(cursor.Token)
	}

	list, err := call.Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("list files: %w", err)
	}

	var next *domain.Cursor
	if list.NextPageToken != "" {
		next = &domain.Cursor{Token: list.NextPageToken}
	}
	if len(list.Files) == 0 {
		p.logger.Debug("empty page", "query", q, "has_next", next != nil)
		return nil, next, nil
	}
	node := toNode(list.Files[0])
	return &node, next, nil
}

// Access fetches the permissions of a node that was listed without them.
func (p *Provider) Access(ctx context.Context, node domain.Node) (domain.Access, error) {
	if node.Access != nil {
		return *node.Access, nil
	}
	if err := p.wait(ctx); err != nil {
		return domain.Access{}, err
	}
	f, err := p.svc.Files.Get(node.ID).
		Fields(fileFields).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return domain.Access{}, fmt.Errorf("get permissions of %s: %w", node.ID, err)
	}
	return toAccess(f), nil
}

// ActingIdentity returns the email of the authenticated user.
// The lookup happens once per Provider.
func (p *Provider) ActingIdentity(ctx context.Context) (string, error) {
	p.identityOnce.Do(func() {
		if err := p.wait(ctx); err != nil {
			p.identityErr = err
			return
		}
		about, err := p.svc.About.Get().Fields("user(emailAddress)").Context(ctx).Do()
		if err != nil {
			p.identityErr = fmt.Errorf("get acting identity: %w", err)
			return
		}
		if about.User == nil || about.User.EmailAddress == "" {
			p.identityErr = errors.New("drive returned no user email")
			return
		}
		p.identity = about.User.EmailAddress
	})
	return p.identity, p.identityErr
}

func toNode(f *drive.File) domain.Node {
	access := toAccess(f)
	return domain.Node{ID: f.Id, Name: f.Name, Access: &access}
}

func childQuery(parentID string, folders bool) string {
	op := "!="
	if folders {
		op = "="
	}
	return fmt.Sprintf("'%s' in parents and trashed = false and mimeType %s '%s'", escape(parentID), op, FolderMimeType)
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
