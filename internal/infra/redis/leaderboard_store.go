package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"wordsprint/internal/domain"
)

// maxElapsed keeps elapsed seconds inside the low digits of the composite rank score.
const maxElapsed = 10_000_000 - 1

// maxScore keeps the composite below 2^53, where sorted set scores stop being exact.
const maxScore = (1<<53 - 1 - maxElapsed) / 10_000_000

// submitScript applies a submission atomically. Layout under the prefix:
//
//	key:{entryKey}  -> member (zero-padded insertion id)
//	seq             -> last insertion id
//	rec:{member}    -> hash of the record fields
//	rank, rank:{m}  -> sorted sets scored by -score*1e7 + elapsed
//
// Equal composite scores fall back to lexical member order, which is
// insertion order thanks to the padding.
var submitScript = redis.NewScript(`
local prefix = ARGV[1]
local entry = ARGV[2]
local policy = ARGV[3]
local player = ARGV[4]
local score = tonumber(ARGV[5])
local elapsed = tonumber(ARGV[6])
local mode = ARGV[7]
local submitted = ARGV[8]
local composite = ARGV[9]

local slot = prefix .. 'key:' .. entry
local member = redis.call('GET', slot)
if not member then
  local id = tostring(redis.call('INCR', prefix .. 'seq'))
  member = string.rep('0', 20 - #id) .. id
  redis.call('SET', slot, member)
  redis.call('HSET', prefix .. 'rec:' .. member, 'key', entry, 'player', player, 'score', ARGV[5], 'elapsed', ARGV[6], 'mode', mode, 'submitted_at', submitted)
  redis.call('ZADD', prefix .. 'rank', composite, member)
  redis.call('ZADD', prefix .. 'rank:' .. mode, composite, member)
  return 'ok'
end
if policy == 'history' then
  return 'duplicate'
end

local rec = prefix .. 'rec:' .. member
local cur = redis.call('HMGET', rec, 'score', 'elapsed', 'mode')
local curScore = tonumber(cur[1])
local curElapsed = tonumber(cur[2])
if score < curScore or (score == curScore and elapsed >= curElapsed) then
  return 'not_better'
end
if cur[3] ~= mode then
  redis.call('ZREM', prefix .. 'rank:' .. cur[3], member)
end
redis.call('HSET', rec, 'player', player, 'score', ARGV[5], 'elapsed', ARGV[6], 'mode', mode, 'submitted_at', submitted)
redis.call('ZADD', prefix .. 'rank', composite, member)
redis.call('ZADD', prefix .. 'rank:' .. mode, composite, member)
return 'updated'
`)

// LeaderboardStore keeps the leaderboard in Redis sorted sets. Submissions
// run as a Lua script, so concurrent writers for one record key serialize on
// the server.
type LeaderboardStore struct {
	client *redis.Client
	prefix string
}

func NewLeaderboardStore(client *redis.Client, prefix string) *LeaderboardStore {
	return &LeaderboardStore{client: client, prefix: prefix + "lb:"}
}

func (s *LeaderboardStore) Submit(ctx context.Context, rec domain.Record, policy domain.Policy) (domain.SubmitResult, error) {
	if rec.ElapsedSeconds < 0 || rec.ElapsedSeconds > maxElapsed {
		return "", fmt.Errorf("elapsed %d outside [0, %d]", rec.ElapsedSeconds, maxElapsed)
	}
	if rec.Score < 0 || rec.Score > maxScore {
		return "", fmt.Errorf("score %d outside [0, %d]", rec.Score, maxScore)
	}
	res, err := submitScript.Run(ctx, s.client, nil,
		s.prefix,
		rec.Key,
		string(policy),
		rec.Player,
		rec.Score,
		rec.ElapsedSeconds,
		string(rec.Mode),
		rec.SubmittedAt.UTC().Format(time.RFC3339Nano),
		composite(rec.Score, rec.ElapsedSeconds),
	).Text()
	if err != nil {
		return "", err
	}
	return domain.SubmitResult(res), nil
}

func (s *LeaderboardStore) Top(ctx context.Context, n int, mode domain.Mode) ([]domain.Record, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n - 1)
	}
	members, err := s.client.ZRange(ctx, s.rankKey(mode), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []domain.Record{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(members))
	for i, m := range members {
		cmds[i] = pipe.HGetAll(ctx, s.prefix+"rec:"+m)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	out := make([]domain.Record, 0, len(members))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// removed by a concurrent reset
			continue
		}
		rec, err := parseRecord(members[i], fields)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *LeaderboardStore) CountAhead(ctx context.Context, score, elapsed int, mode domain.Mode) (int, error) {
	ahead, err := s.client.ZCount(ctx, s.rankKey(mode), "-inf", "("+composite(score, elapsed)).Result()
	if err != nil {
		return 0, err
	}
	return int(ahead), nil
}

func (s *LeaderboardStore) Reset(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 500).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *LeaderboardStore) rankKey(mode domain.Mode) string {
	if mode == domain.ModeAny {
		return s.prefix + "rank"
	}
	return s.prefix + "rank:" + string(mode)
}

func composite(score, elapsed int) string {
	return strconv.FormatInt(-int64(score)*10_000_000+int64(elapsed), 10)
}

func parseRecord(member string, fields map[string]string) (domain.Record, error) {
	id, err := strconv.ParseInt(member, 10, 64)
	if err != nil {
		return domain.Record{}, fmt.Errorf("bad member %q: %w", member, err)
	}
	score, err := strconv.Atoi(fields["score"])
	if err != nil {
		return domain.Record{}, fmt.Errorf("bad score for %s: %w", member, err)
	}
	elapsed, err := strconv.Atoi(fields["elapsed"])
	if err != nil {
		return domain.Record{}, fmt.Errorf("bad elapsed for %s: %w", member, err)
	}
	submitted, err := time.Parse(time.RFC3339Nano, fields["submitted_at"])
	if err != nil {
		return domain.Record{}, fmt.Errorf("bad submitted_at for %s: %w", member, err)
	}
	return domain.Record{
		ID:             id,
		Key:            fields["key"],
		Player:         fields["player"],
		Score:          score,
		ElapsedSeconds: elapsed,
		Mode:           domain.Mode(fields["mode"]),
		SubmittedAt:    submitted,
	}, nil
}
