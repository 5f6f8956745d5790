package observer

import pkgif "github.com/dep2p/go-reactive/pkg/interfaces"

// RegistrarFunc 函数形式的 Registrar
type RegistrarFunc[T any] func(sink pkgif.Sink[T]) (pkgif.Registration, error)

// Register 实现 pkgif.Registrar
func (f RegistrarFunc[T]) Register(sink pkgif.Sink[T]) (pkgif.Registration, error) {
	return f(sink)
}

// RegistrationFunc 函数形式的 Registration
type RegistrationFunc func()

// Unregister 实现 pkgif.Registration
func (f RegistrationFunc) Unregister() {
	if f != nil {
		f()
	}
}

var noRegistration = RegistrationFunc(nil)
