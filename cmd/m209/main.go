// Command m209 encrypts and decrypts with an M-209 key and attacks M-209
// ciphertext.
package main

func main() {
	execute()
}
