// Package propbind reads layered configuration through dotted prefixes.
//
// Quick Start:
//
//	sources, err := propbind.NewLoader().
//	    WithSource(sourcefile.New("app.yaml", sourcefile.Options{})).
//	    WithSource(sourceenv.New(sourceenv.Options{Prefix: "APP_"})).
//	    Load(context.Background())
//
//	binder := propbind.NewBinder(sources)
//
//	info := binder.ExtractAll("app.info")   // ordered, prefix stripped
//
//	type Server struct {
//	    Port    int           `prop:"default:8080,min:1024"`
//	    Timeout time.Duration `prop:"default:5s"`
//	}
//	var srv Server
//	err = binder.BindTo("server", &srv)      // server.port -> srv.Port
//
// The stack is ordered by precedence: the first layer holding a key wins.
// Field keys are matched relaxed, so server.read-timeout, SERVER__READ_TIMEOUT
// and server.readTimeout all bind ReadTimeout.
//
// Tag directives: name:path, prefix:path, default:val, required, min:N, max:N, oneof:a,b,c, secret, and "-".
//
// Binding is delegated to an Engine; ReflectEngine is the default and
// envengine offers an alternative built on caarlos0/env.
package propbind
