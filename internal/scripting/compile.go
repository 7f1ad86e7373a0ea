package scripting

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

func compileChunk(src string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader(src), "<condition>")
	if err != nil {
		return nil, err
	}
	return lua.Compile(chunk, "<condition>")
}
