package sql

type Token struct {
	Type  TokenType
	Value string
}

type TokenType int

const (
	Identifier TokenType = iota
	String
	Int
	Float
	Comma
	ParenOpen
	ParenClose
	Minus
	Semicolon
	Comment
	Null
	True
	False
	On
	Delete
	Update
	Set
	Cascade
	Restrict
	No
	Action
	Select
	Insert
	Drop
	Create
	Alter
	Attach
	Pragma
	Union
	EOF
	Unknown
)

func (token Token) String() string {
	switch token.Type {
	case Identifier:
		return "Identifier(" + token.Value + ")"
	case String:
		return "String(" + token.Value + ")"
	case Int:
		return "Int(" + token.Value + ")"
	case Float:
		return "Float(" + token.Value + ")"
	case Comma:
		return "Comma"
	case ParenOpen:
		return "ParenOpen"
	case ParenClose:
		return "ParenClose"
	case Minus:
		return "Minus"
	case Semicolon:
		return "Semicolon"
	case Comment:
		return "Comment"
	case Null:
		return "Null"
	case True:
		return "True"
	case False:
		return "False"
	case EOF:
		return "EOF"
	case Unknown:
		return "Unknown(" + token.Value + ")"
	default:
		return "Keyword(" + token.Value + ")"
	}
}

type Lexer struct {
	sql          string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(sql string) *Lexer {
	lexer := &Lexer{sql: sql}
	lexer.readChar()
	return lexer
}

func (lexer *Lexer) readChar() {
	if lexer.readPosition >= len(lexer.sql) {
		lexer.ch = 0
	} else {
		lexer.ch = lexer.sql[lexer.readPosition]
	}
	lexer.position = lexer.readPosition
	lexer.readPosition++
}

func (lexer *Lexer) peekChar() byte {
	if lexer.readPosition >= len(lexer.sql) {
		return 0
	}
	return lexer.sql[lexer.readPosition]
}

func (lexer *Lexer) NextToken() Token {
	var token Token

	lexer.skipWhitespace()

	switch lexer.ch {
	case ',':
		token = Token{Type: Comma, Value: string(lexer.ch)}
	case '(':
		token = Token{Type: ParenOpen, Value: string(lexer.ch)}
	case ')':
		token = Token{Type: ParenClose, Value: string(lexer.ch)}
	case ';':
		token = Token{Type: Semicolon, Value: string(lexer.ch)}
	case 0:
		token = Token{Type: EOF, Value: ""}
	case '\'':
		value, ok := lexer.readString()
		if !ok {
			return Token{Type: Unknown, Value: "'" + value}
		}
		token = Token{Type: String, Value: value}
	case '-':
		if lexer.peekChar() == '-' {
			return Token{Type: Comment, Value: lexer.readToEnd()}
		}
		token = Token{Type: Minus, Value: string(lexer.ch)}
	case '/':
		if lexer.peekChar() == '*' {
			return Token{Type: Comment, Value: lexer.readToEnd()}
		}
		token = Token{Type: Unknown, Value: string(lexer.ch)}
	default:
		if isDigit(lexer.ch) {
			num := lexer.readNumber()
			// Check if it's a float
			if lexer.ch == '.' {
				lexer.readChar() // consume '.'
				decimal := lexer.readNumber()
				return Token{Type: Float, Value: num + "." + decimal}
			}
			return Token{Type: Int, Value: num}
		} else if isAlphaNumeric(lexer.ch) {
			literal := lexer.readIdentifier()
			return Token{Type: lookupIdentifier(literal), Value: literal}
		} else {
			token = Token{Type: Unknown, Value: string(lexer.ch)}
		}
	}

	lexer.readChar()
	return token
}

func (lexer *Lexer) skipWhitespace() {
	for lexer.ch == ' ' || lexer.ch == '\t' || lexer.ch == '\n' || lexer.ch == '\r' {
		lexer.readChar()
	}
}

func (lexer *Lexer) readIdentifier() string {
	position := lexer.position
	for isAlphaNumeric(lexer.ch) {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

// readString reads a single-quoted literal, treating '' as an escaped quote.
// The lexer is left on the closing quote. ok is false when the literal is
// never closed.
func (lexer *Lexer) readString() (value string, ok bool) {
	lexer.readChar() // skip opening quote
	position := lexer.position
	for {
		switch {
		case lexer.ch == 0:
			return lexer.sql[position:lexer.position], false
		case lexer.ch == '\'' && lexer.peekChar() == '\'':
			lexer.readChar()
			lexer.readChar()
		case lexer.ch == '\'':
			return lexer.sql[position:lexer.position], true
		default:
			lexer.readChar()
		}
	}
}

func (lexer *Lexer) readNumber() string {
	position := lexer.position
	for isDigit(lexer.ch) {
		lexer.readChar()
	}
	return lexer.sql[position:lexer.position]
}

func (lexer *Lexer) readToEnd() string {
	rest := lexer.sql[lexer.position:]
	lexer.position = len(lexer.sql)
	lexer.readPosition = len(lexer.sql)
	lexer.ch = 0
	return rest
}

func isAlphaNumeric(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_' || ch == '.' || isDigit(ch)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func lookupIdentifier(id string) TokenType {
	// Convert to uppercase for case-insensitive matching
	switch toUpper(id) {
	case "NULL":
		return Null
	case "TRUE":
		return True
	case "FALSE":
		return False
	case "ON":
		return On
	case "DELETE":
		return Delete
	case "UPDATE":
		return Update
	case "SET":
		return Set
	case "CASCADE":
		return Cascade
	case "RESTRICT":
		return Restrict
	case "NO":
		return No
	case "ACTION":
		return Action
	case "SELECT":
		return Select
	case "INSERT":
		return Insert
	case "DROP":
		return Drop
	case "CREATE":
		return Create
	case "ALTER":
		return Alter
	case "ATTACH":
		return Attach
	case "PRAGMA":
		return Pragma
	case "UNION":
		return Union
	default:
		return Identifier
	}
}

// toUpper converts a string to uppercase without allocating for ASCII strings
func toUpper(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			// Need to convert, allocate a new string
			b := make([]byte, len(s))
			for j := 0; j < len(s); j++ {
				if s[j] >= 'a' && s[j] <= 'z' {
					b[j] = s[j] - 32
				} else {
					b[j] = s[j]
				}
			}
			return string(b)
		}
	}
	return s
}

func tokenize(sql string) []Token {
	lexer := NewLexer(sql)

	var tokens []Token

	for {
		token := lexer.NextToken()
		if token.Type == EOF {
			return append(tokens, token)
		}
		tokens = append(tokens, token)
	}
}
