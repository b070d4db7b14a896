package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/sharperly/logistics-api/internal/config"
)

const (
	defaultCodeLength        = 6
	minCodeLength            = 4
	maxCodeLength            = 10
	defaultCodeExpireMinutes = 10
)

// hashVerifyCode 验证码只以 sha256 摘要落库
func hashVerifyCode(code string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(sum[:])
}

// issueVerifyCode 生成验证码明文、摘要与过期时间
func issueVerifyCode(cfg config.VerifyCodeConfig, now time.Time) (code, digest string, expireAt time.Time, err error) {
	code, err = randomNumericCode(resolveCodeLength(cfg))
	if err != nil {
		return "", "", time.Time{}, err
	}
	expireAt = now.Add(time.Duration(resolveExpireMinutes(cfg)) * time.Minute)
	return code, hashVerifyCode(code), expireAt, nil
}

func resolveExpireMinutes(cfg config.VerifyCodeConfig) int {
	if cfg.ExpireMinutes <= 0 {
		return defaultCodeExpireMinutes
	}
	return cfg.ExpireMinutes
}

func resolveCodeLength(cfg config.VerifyCodeConfig) int {
	if cfg.Length < minCodeLength || cfg.Length > maxCodeLength {
		return defaultCodeLength
	}
	return cfg.Length
}

// randomNumericCode 在 [0, 10^length) 内均匀取值并左侧补零
func randomNumericCode(length int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}
