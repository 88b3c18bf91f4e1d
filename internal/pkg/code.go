package pkg

import (
	cryptoRand "crypto/rand"
	"math/big"
	"strings"
)

// InviteAlphabet 邀请码字符集，去掉了易混淆的 0/O、1/I/L
const InviteAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// InviteCodeLength 邀请码固定长度
const InviteCodeLength = 8

// RandCode 从给定字符集生成n位随机码
func RandCode(alphabet string, n int) (string, error) {
	size := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	for i := 0; i < n; i++ {
		x, err := cryptoRand.Int(cryptoRand.Reader, size)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[x.Int64()])
	}
	return b.String(), nil
}
