package seed

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loveos/couple-api/internal/core/domain"
	"github.com/loveos/couple-api/internal/core/service"
	"github.com/loveos/couple-api/internal/infrastructure/db/memory"
)

const coupleYAML = `
accounts:
  - username: boyfriend
    password: love123
    role: boyfriend
    display_name: Sam
    relationship_start: "2022-05-01"
    partner: girlfriend
  - username: girlfriend
    password: love123
    role: girlfriend
    display_name: Alex
    anniversary_date: "2022-05-01"
`

func newSeeder(t *testing.T) (*Seeder, *memory.UserRepository, *service.AuthService) {
	t.Helper()
	repo := memory.NewUserRepository()
	auth := service.NewAuthService(repo, service.NewPasswordAuthenticator(repo), memory.NewRevocationStore(), "secret", time.Hour, zerolog.Nop())
	partners := service.NewPartnerService(repo, zerolog.Nop())
	return NewSeeder(auth, partners, repo, zerolog.Nop()), repo, auth
}

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(coupleYAML))
	require.NoError(t, err)
	require.Len(t, f.Accounts, 2)
	assert.Equal(t, "girlfriend", f.Accounts[0].Partner)
	assert.Equal(t, "2022-05-01", f.Accounts[1].AnniversaryDate)

	_, err = Parse(strings.NewReader("accounts:\n  - username: x\n    colour: red\n"))
	assert.Error(t, err, "unknown keys are rejected")

	empty, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Accounts)
}

func TestSeeder_ApplyCreatesAndLinks(t *testing.T) {
	seeder, repo, auth := newSeeder(t)
	ctx := context.Background()

	f, err := Parse(strings.NewReader(coupleYAML))
	require.NoError(t, err)

	res, err := seeder.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, &Result{Created: 2, Linked: 1}, res)

	bf, err := repo.FindByUsername(ctx, "boyfriend")
	require.NoError(t, err)
	gf, err := repo.FindByUsername(ctx, "girlfriend")
	require.NoError(t, err)
	assert.Equal(t, gf.ID, bf.PartnerID)
	assert.Equal(t, bf.ID, gf.PartnerID)

	login, err := auth.Login(ctx, "boyfriend", "love123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleBoyfriend, login.User.Role)
}

func TestSeeder_ApplyIsIdempotent(t *testing.T) {
	seeder, _, _ := newSeeder(t)
	ctx := context.Background()
	f, _ := Parse(strings.NewReader(coupleYAML))

	_, err := seeder.Apply(ctx, f)
	require.NoError(t, err)

	res, err := seeder.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, &Result{Skipped: 2}, res)
}

func TestSeeder_ApplyInvalidAccount(t *testing.T) {
	seeder, _, _ := newSeeder(t)

	_, err := seeder.Apply(context.Background(), &File{Accounts: []Account{{Username: "x", Password: "p", Role: "spouse"}}})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestSeeder_ApplySkipsUnknownPartner(t *testing.T) {
	seeder, _, _ := newSeeder(t)

	res, err := seeder.Apply(context.Background(), &File{Accounts: []Account{
		{Username: "solo", Password: "p", Role: domain.RoleGirlfriend, Partner: "ghost"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.Linked)
}

func TestSeeder_ApplyLogsSummaryOnce(t *testing.T) {
	repo := memory.NewUserRepository()
	auth := service.NewAuthService(repo, service.NewPasswordAuthenticator(repo), memory.NewRevocationStore(), "secret", time.Hour, zerolog.Nop())
	var buf bytes.Buffer
	seeder := NewSeeder(auth, service.NewPartnerService(repo, zerolog.Nop()), repo, zerolog.New(&buf))

	f, err := Parse(strings.NewReader(coupleYAML))
	require.NoError(t, err)
	_, err = seeder.Apply(context.Background(), f)
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, `"message":"seed applied"`), out)
	assert.Contains(t, out, `"created":2`)
	assert.Contains(t, out, `"linked":1`)
}
