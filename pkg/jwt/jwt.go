package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles reconocidos por la API.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operador"
)

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// StoreID fija la tienda de un operador; los administradores pueden operar sobre cualquiera.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"user_id"`
	StoreID int64  `json:"store_id"`
	Role    string `json:"role"` // "admin" | "operador"
}

// IsAdmin indica si el token tiene rol de administrador.
func (c *Claims) IsAdmin() bool { return c.Role == RoleAdmin }

// Generate genera un token JWT firmado. Los tokens de producción los emite el sistema
// de autenticación externo; esta función sirve a tests y herramientas internas.
func Generate(secret, userID string, storeID int64, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:  userID,
		StoreID: storeID,
		Role:    role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve sus claims.
// Retorna error si el token es inválido, expirado, tiene firma incorrecta o un rol desconocido.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	switch claims.Role {
	case RoleAdmin:
	case RoleOperator:
		if claims.StoreID <= 0 {
			return nil, fmt.Errorf("claims inválidos: operador sin store_id")
		}
	default:
		return nil, fmt.Errorf("claims inválidos: rol %q", claims.Role)
	}
	return claims, nil
}
