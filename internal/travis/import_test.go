package travis

import (
	"strings"
	"testing"
)

const travisFixture = `language: python

python:
  - "2.6"
  - "2.7"

env:
  - DJANGO=1.5.12 POSTGRES_USER=postgres DB_NAME=avocado
  - DJANGO=1.6.10 POSTGRES_USER=postgres DB_NAME=avocado

services:
  - memcached
  - postgresql

before_install:
  - pip install flake8
  - flake8 avocado

install:
  - pip install "Django==$DJANGO" coverage

before_script:
  - psql -U $POSTGRES_USER -c 'create database avocado;'

script:
  - coverage run test_suite.py --sqlite --postgres

after_success:
  - pip install coveralls && coveralls
`

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(travisFixture))
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}
	if cfg.Language != "python" {
		t.Errorf("expected language python, got %s", cfg.Language)
	}
	if len(cfg.Python) != 2 {
		t.Errorf("expected 2 python versions, got %d", len(cfg.Python))
	}
	if len(cfg.Env.Matrix) != 2 {
		t.Errorf("expected 2 env matrix entries, got %d", len(cfg.Env.Matrix))
	}
	if len(cfg.Services) != 2 {
		t.Errorf("expected 2 services, got %d", len(cfg.Services))
	}
	if len(cfg.Script) != 1 {
		t.Errorf("expected 1 script command, got %d", len(cfg.Script))
	}
}

func TestParseScalarScript(t *testing.T) {
	cfg, err := Parse(strings.NewReader("language: python\nscript: make test\n"))
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}
	if len(cfg.Script) != 1 || cfg.Script[0] != "make test" {
		t.Errorf("expected script [make test], got %v", cfg.Script)
	}
}

func TestParseEnvLongForm(t *testing.T) {
	doc := `language: python
env:
  global:
    - DB_NAME=avocado
  matrix:
    - DJANGO=1.5.12
    - DJANGO=1.6.10
`
	cfg, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}
	if len(cfg.Env.Global) != 1 || cfg.Env.Global[0] != "DB_NAME=avocado" {
		t.Errorf("expected global [DB_NAME=avocado], got %v", cfg.Env.Global)
	}
	if len(cfg.Env.Matrix) != 2 {
		t.Errorf("expected 2 matrix entries, got %v", cfg.Env.Matrix)
	}
}

func TestConvert(t *testing.T) {
	cfg, err := Parse(strings.NewReader(travisFixture))
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}

	rendered := string(Convert(cfg).Bytes())

	for _, want := range []string{
		`conveyor {`,
		`version = 1`,
		`matrix {`,
		`axis "python" {`,
		`service "memcached" {`,
		`image = "memcached"`,
		`port  = 11211`,
		`service "postgres" {`,
		`image = "postgres"`,
		`port  = 5432`,
		`stage "before_install" {`,
		`stage "script" {`,
		`phase  = "script"`,
		`coverage run test_suite.py --sqlite --postgres`,
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("expected rendered pipeline to contain %q\n%s", want, rendered)
		}
	}
}

func TestConvertExclude(t *testing.T) {
	doc := `language: python
python:
  - "2.6"
  - "2.7"
env:
  - DJANGO=1.6.10
matrix:
  exclude:
    - python: "2.6"
      env: DJANGO=1.6.10
`
	cfg, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}
	rendered := string(Convert(cfg).Bytes())
	if !strings.Contains(rendered, "exclude") {
		t.Errorf("expected rendered pipeline to contain an exclude attribute\n%s", rendered)
	}
}

func TestParseAfterFailure(t *testing.T) {
	doc := `language: python
script:
  - make test
after_failure:
  - cat test.log
  - dmesg | tail
`
	cfg, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}
	if len(cfg.AfterFailure) != 2 {
		t.Errorf("expected 2 after_failure commands, got %d", len(cfg.AfterFailure))
	}

	// after_failure has no conveyor phase, so conversion must not emit a
	// stage for it
	rendered := string(Convert(cfg).Bytes())
	if strings.Contains(rendered, "after_failure") {
		t.Errorf("expected no after_failure stage\n%s", rendered)
	}
}

func TestConvertAddons(t *testing.T) {
	doc := `language: python
services:
  - memcached
addons:
  postgresql: "9.3"
script:
  - coverage run test_suite.py --postgres
`
	cfg, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}
	if cfg.Addons.Postgresql != "9.3" {
		t.Errorf("expected addons postgresql 9.3, got %q", cfg.Addons.Postgresql)
	}

	rendered := string(Convert(cfg).Bytes())
	for _, want := range []string{
		`service "postgres" {`,
		`image = "postgres:9.3"`,
		`port  = 5432`,
		`service "memcached" {`,
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("expected rendered pipeline to contain %q\n%s", want, rendered)
		}
	}
}

func TestConvertAddonsDeduplicate(t *testing.T) {
	doc := `language: python
services:
  - postgresql
addons:
  postgresql: "9.3"
`
	cfg, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Errorf("unexpected error: %s", err)
		return
	}
	rendered := string(Convert(cfg).Bytes())
	if got := strings.Count(rendered, `service "postgres" {`); got != 1 {
		t.Errorf("expected a single postgres service block, got %d\n%s", got, rendered)
	}
	if !strings.Contains(rendered, `image = "postgres:9.3"`) {
		t.Errorf("expected the addon version to pin the image\n%s", rendered)
	}
}

func TestConvertAddonsMariadb(t *testing.T) {
	cfg := &Config{Language: "python", Addons: Addons{Mariadb: "10.1"}}
	rendered := string(Convert(cfg).Bytes())
	for _, want := range []string{
		`service "mariadb" {`,
		`image = "mariadb:10.1"`,
		`port  = 3306`,
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("expected rendered pipeline to contain %q\n%s", want, rendered)
		}
	}
}

func TestServiceId(t *testing.T) {
	if serviceId("postgresql") != "postgres" {
		t.Error("postgresql should normalize to postgres")
	}
	if serviceId("redis-server") != "redis" {
		t.Error("redis-server should normalize to redis")
	}
	if serviceId("memcached") != "memcached" {
		t.Error("memcached should pass through unchanged")
	}
}
