//go:build integration

package registry_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"grunnlag/internal/registry"
	"grunnlag/pkg/platform/sentinel"
	"grunnlag/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *registry.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.cache = registry.NewRedisCache(s.redis.Client.Client, 5*time.Minute)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestPersonRoundTrip() {
	ctx := context.Background()
	key := registry.PersonKey{Fnr: "01018022091", Rolle: "soeker", SakType: "BARNEPENSJON"}
	svar := &registry.PersonSvar{
		Fnr:                key.Fnr,
		Rolle:              key.Rolle,
		Dokument:           json.RawMessage(`{"navn":"Ola"}`),
		Registersreferanse: "ref-1",
		HentetTidspunkt:    time.Now().UTC().Truncate(time.Second),
	}

	s.Require().NoError(s.cache.SavePerson(ctx, key, svar))

	found, err := s.cache.FindPerson(ctx, key)
	s.Require().NoError(err)
	s.Equal(svar.Registersreferanse, found.Registersreferanse)
	s.JSONEq(string(svar.Dokument), string(found.Dokument))
	s.True(svar.HentetTidspunkt.Equal(found.HentetTidspunkt))
}

func (s *RedisCacheSuite) TestRoleIsolation() {
	ctx := context.Background()
	soeker := registry.PersonKey{Fnr: "01018022091", Rolle: "soeker", SakType: "BARNEPENSJON"}
	innsender := registry.PersonKey{Fnr: "01018022091", Rolle: "innsender", SakType: "BARNEPENSJON"}

	s.Require().NoError(s.cache.SavePerson(ctx, soeker, &registry.PersonSvar{Dokument: json.RawMessage(`{}`)}))

	_, err := s.cache.FindPerson(ctx, innsender)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisCacheSuite) TestTTLEviction() {
	ctx := context.Background()
	key := registry.PersonKey{Fnr: "02028025591", Rolle: "avdoed", SakType: "BARNEPENSJON"}
	shortTTL := registry.NewRedisCache(s.redis.Client.Client, 50*time.Millisecond)

	s.Require().NoError(shortTTL.SavePerson(ctx, key, &registry.PersonSvar{Dokument: json.RawMessage(`{}`)}))
	time.Sleep(90 * time.Millisecond)

	_, err := shortTTL.FindPerson(ctx, key)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
