package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"treasure-hunt-backend/internal/config"
	"treasure-hunt-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisService struct {
	client          *redis.Client
	startingBalance int64
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	_, err := client.Ping(context.Background()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	service := &RedisService{
		client:          client,
		startingBalance: cfg.StartingBalance,
	}

	return service, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// Wallets are hashes so balances can be adjusted with HINCRBY. Every script
// creates the wallet with the starting balance on first touch.
const ensureWallet = `
	local key = KEYS[1]
	if redis.call("EXISTS", key) == 0 then
		redis.call("HSET", key, "account", ARGV[1], "balance", ARGV[2], "total_paid", "0", "total_won", "0")
	end
`

var openWalletScript = redis.NewScript(ensureWallet + `
	return "OK"
`)

var chargeScript = redis.NewScript(ensureWallet + `
	local amount = ARGV[3]
	local balance = tonumber(redis.call("HGET", key, "balance"))
	if balance < tonumber(amount) then
		return redis.error_reply("insufficient balance")
	end

	redis.call("HINCRBY", key, "balance", "-" .. amount)
	redis.call("HINCRBY", key, "total_paid", amount)
	return "OK"
`)

// ARGV[4] names the running total to adjust by ARGV[5].
var creditScript = redis.NewScript(ensureWallet + `
	redis.call("HINCRBY", key, "balance", ARGV[3])
	redis.call("HINCRBY", key, ARGV[4], ARGV[5])
	return "OK"
`)

func (s *RedisService) walletArgs(account string, amount int64) []interface{} {
	return []interface{}{
		account,
		strconv.FormatInt(s.startingBalance, 10),
		strconv.FormatInt(amount, 10),
	}
}

func (s *RedisService) GetWallet(ctx context.Context, account string) (*models.Wallet, error) {
	key := fmt.Sprintf(KeyWallet, account)

	if err := openWalletScript.Run(ctx, s.client, []string{key}, s.walletArgs(account, 0)...).Err(); err != nil {
		return nil, fmt.Errorf("failed to open wallet: %v", err)
	}

	var wallet models.Wallet
	if err := s.client.HGetAll(ctx, key).Scan(&wallet); err != nil {
		return nil, fmt.Errorf("failed to get wallet: %v", err)
	}
	wallet.UpdatedAt = time.Now()

	return &wallet, nil
}

func (s *RedisService) Charge(ctx context.Context, account string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative charge: %d", amount)
	}

	key := fmt.Sprintf(KeyWallet, account)
	err := chargeScript.Run(ctx, s.client, []string{key}, s.walletArgs(account, amount)...).Err()
	if err != nil {
		if strings.Contains(err.Error(), "insufficient balance") {
			return fmt.Errorf("%w: need %d", ErrInsufficientBalance, amount)
		}
		return fmt.Errorf("failed to charge wallet: %v", err)
	}
	return nil
}

// Transfer credits a prize to account.
func (s *RedisService) Transfer(ctx context.Context, account string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative transfer: %d", amount)
	}
	if account == "" {
		return fmt.Errorf("transfer to empty account")
	}

	key := fmt.Sprintf(KeyWallet, account)
	args := append(s.walletArgs(account, amount), "total_won", strconv.FormatInt(amount, 10))
	if err := creditScript.Run(ctx, s.client, []string{key}, args...).Err(); err != nil {
		return fmt.Errorf("failed to credit wallet: %v", err)
	}
	return nil
}

// creditOnceScript applies a prize credit under a per-transaction marker.
// A repeat with the same marker is a no-op.
var creditOnceScript = redis.NewScript(ensureWallet + `
	if not redis.call("SET", KEYS[2], "1", "NX", "EX", ARGV[6]) then
		return "DUPLICATE"
	end
	redis.call("HINCRBY", key, "balance", ARGV[3])
	redis.call("HINCRBY", key, ARGV[4], ARGV[5])
	return "OK"
`)

// TransferOnce credits a prize keyed by txID. Transfer cannot tell a lost
// reply from a failed credit, so a timed-out Transfer may still have paid;
// TransferOnce can be retried with the same txID instead.
func (s *RedisService) TransferOnce(ctx context.Context, txID, account string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative transfer: %d", amount)
	}
	if account == "" || txID == "" {
		return fmt.Errorf("transfer needs an account and a transaction id")
	}

	keys := []string{fmt.Sprintf(KeyWallet, account), fmt.Sprintf(KeyCredit, txID)}
	args := append(s.walletArgs(account, amount),
		"total_won",
		strconv.FormatInt(amount, 10),
		strconv.FormatInt(int64(TTLTransaction/time.Second), 10),
	)
	if err := creditOnceScript.Run(ctx, s.client, keys, args...).Err(); err != nil {
		return fmt.Errorf("failed to credit wallet: %v", err)
	}
	return nil
}

var _ IdempotentPayer = (*RedisService)(nil)

func (s *RedisService) Refund(ctx context.Context, account string, amount int64) error {
	key := fmt.Sprintf(KeyWallet, account)
	args := append(s.walletArgs(account, amount), "total_paid", strconv.FormatInt(-amount, 10))
	if err := creditScript.Run(ctx, s.client, []string{key}, args...).Err(); err != nil {
		return fmt.Errorf("failed to refund wallet: %v", err)
	}
	return nil
}

func (s *RedisService) DeleteWallet(ctx context.Context, account string) error {
	key := fmt.Sprintf(KeyWallet, account)
	return s.client.Del(ctx, key).Err()
}

func (s *RedisService) SaveSnapshot(ctx context.Context, snapshot *models.GameSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %v", err)
	}

	if err := s.client.Set(ctx, KeyGameState, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save game state: %v", err)
	}
	return nil
}

// LoadSnapshot returns nil, nil when no game has been saved yet.
func (s *RedisService) LoadSnapshot(ctx context.Context) (*models.GameSnapshot, error) {
	data, err := s.client.Get(ctx, KeyGameState).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game state: %v", err)
	}

	var snapshot models.GameSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %v", err)
	}

	return &snapshot, nil
}

func (s *RedisService) DeleteSnapshot(ctx context.Context) error {
	return s.client.Del(ctx, KeyGameState).Err()
}

func (s *RedisService) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	txKey := fmt.Sprintf(KeyTransaction, tx.ID)

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %v", err)
	}

	if err := s.client.Set(ctx, txKey, data, TTLTransaction).Err(); err != nil {
		return fmt.Errorf("failed to save transaction: %v", err)
	}

	accountTxKey := fmt.Sprintf(KeyAccountTransactions, tx.Account)
	if err := s.client.ZAdd(ctx, accountTxKey, redis.Z{
		Score:  float64(tx.CreatedAt.UnixNano()),
		Member: tx.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to account transactions: %v", err)
	}

	s.client.ZRemRangeByRank(ctx, accountTxKey, 0, -(MaxTransactionsPerAccount + 1))

	return nil
}

// GetTransactions returns the newest transactions for account first.
func (s *RedisService) GetTransactions(ctx context.Context, account string, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > MaxTransactionsPerAccount {
		limit = 50
	}

	accountTxKey := fmt.Sprintf(KeyAccountTransactions, account)

	txIDs, err := s.client.ZRevRange(ctx, accountTxKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction IDs: %v", err)
	}
	if len(txIDs) == 0 {
		return []*models.Transaction{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(txIDs))
	for i, txID := range txIDs {
		cmds[i] = pipe.Get(ctx, fmt.Sprintf(KeyTransaction, txID))
	}

	_, err = pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("pipeline execution failed: %v", err)
	}

	transactions := make([]*models.Transaction, 0, len(cmds))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue
		}

		var tx models.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}

		transactions = append(transactions, &tx)
	}

	return transactions, nil
}

func (s *RedisService) DeleteTransactions(ctx context.Context, account string) error {
	accountTxKey := fmt.Sprintf(KeyAccountTransactions, account)

	txIDs, err := s.client.ZRange(ctx, accountTxKey, 0, -1).Result()
	if err != nil {
		return err
	}

	keys := []string{accountTxKey}
	for _, txID := range txIDs {
		keys = append(keys, fmt.Sprintf(KeyTransaction, txID))
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisService) CheckRateLimit(ctx context.Context, account, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, account, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) ClearRateLimit(ctx context.Context, account, action string) error {
	key := fmt.Sprintf(KeyRateLimit, account, action)
	return s.client.Del(ctx, key).Err()
}
