package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/pbanos/copse/feature"
	"github.com/pbanos/copse/tree"
	"gopkg.in/redis.v5"
)

/*
RuleEncodeDecoder is an interface for objects
that allow encoding rules into slices of
bytes and decoding them back to rules.
*/
type RuleEncodeDecoder interface {

	//Encode receives a feature.Rule
	//and returns a slice of bytes with the rule
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(feature.Rule) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a feature.Rule decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode([]byte) (feature.Rule, error)
}

// Client is the subset of *redis.Client the store needs
type Client interface {
	Get(key string) *redis.StringCmd
	Set(key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(keys ...string) *redis.IntCmd
	Close() error
}

type redisStore struct {
	rc     Client
	prefix string
	renc   RuleEncodeDecoder
}

//New builds a tree.RuleStore backed by a redis DB
func New(rc Client, prefix string, renc RuleEncodeDecoder) tree.RuleStore {
	return &redisStore{rc, prefix, renc}
}

/*
Dial takes a redis URL such as redis://:password@localhost:6379/0, a key
prefix and a RuleEncodeDecoder and returns a tree.RuleStore on the redis
DB at the URL or an error if the URL cannot be parsed or the server cannot
be reached.
*/
func Dial(url, prefix string, renc RuleEncodeDecoder) (tree.RuleStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %v", err)
	}
	rc := redis.NewClient(opts)
	if err = rc.Ping().Err(); err != nil {
		rc.Close()
		return nil, fmt.Errorf("connecting to redis: %v", err)
	}
	return New(rc, prefix, renc), nil
}

func (rs *redisStore) Get(ctx context.Context, session, treeID string) (*feature.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	redisID := rs.keyFor(session, treeID)
	data, err := rs.rc.Get(redisID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving rule %q: %v", redisID, err)
	}
	r, err := rs.renc.Decode([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("retrieving rule %q: decoding %q: %w", redisID, data, err)
	}
	return &r, nil
}

func (rs *redisStore) Store(ctx context.Context, session, treeID string, r feature.Rule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	redisID := rs.keyFor(session, treeID)
	data, err := rs.renc.Encode(r)
	if err != nil {
		return fmt.Errorf("storing rule %q: encoding rule: %w", redisID, err)
	}
	_, err = rs.rc.Set(redisID, data, 0).Result()
	if err != nil {
		return fmt.Errorf("storing rule %q in redis: %v", redisID, err)
	}
	return nil
}

func (rs *redisStore) Delete(ctx context.Context, session, treeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	redisID := rs.keyFor(session, treeID)
	_, err := rs.rc.Del(redisID).Result()
	if err != nil {
		return fmt.Errorf("deleting rule %q from redis: %v", redisID, err)
	}
	return nil
}

func (rs *redisStore) Close(ctx context.Context) error {
	return rs.rc.Close()
}

func (rs *redisStore) keyFor(session, treeID string) string {
	return fmt.Sprintf("%s:%s:%s", rs.prefix, session, treeID)
}
