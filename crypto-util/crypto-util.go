package crypto_util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
)

const (
	IV = "00112233445566778899aabbccddeeff"
)

// example
// manually encrypt the mqtt connection string
// openssl enc -aes-256-cbc -in mqtt-constring-secret.txt -out ciphertext.bin -K 76dabc4cf1c8127220f1a401c658be5788f63df98e553f55aeeebc9acc78ad14 -iv 00112233445566778899aabbccddeeff -p -nosalt
// manually generate the key
//  echo -n "this is my test" | openssl dgst -sha256

// Give key
func GenerateKey(seed string) []byte {

	hash := sha256.New()
	hash.Write([]byte(seed))
	hashBytes := hash.Sum(nil)

	return hashBytes
}

// Encrypt function using AES-CBC
func EncryptAES256CBC(plaintext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(err, errors.New("crypto util encrypt AES-CBC"))
	}

	if len(plaintext)%aes.BlockSize != 0 {
		// Ensure the plaintext is padded to a multiple of the block size
		paddingSize := aes.BlockSize - (len(plaintext) % aes.BlockSize)
		padding := make([]byte, paddingSize)
		plaintext = append(plaintext, padding...)
	}

	ciphertext := make([]byte, len(plaintext))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, plaintext)

	return ciphertext, nil
}

// Decrypt function using AES-CBC
func DecryptAES256CBC(ciphertext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(err, errors.New("crypto util decrypt AES-CBC"))
	}

	plaintext := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plaintext, ciphertext)

	return plaintext, nil
}
