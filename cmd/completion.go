package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_icmsf() {
    local cur prev words cword
    _init_completion || return

    local commands="add ls rm export import inspect diff compact config help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        add)
            case "$prev" in
                --cert)
                    _filedir
                    return
                    ;;
            esac
            COMPREPLY=($(compgen -W "--host --ssh-port --api-port --user --cert" -- "$cur"))
            ;;
        export)
            if [[ "$prev" == "-o" ]]; then
                _filedir icmsf
            elif [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-o" -- "$cur"))
            else
                local names
                names=$(icmsf ls 2>/dev/null | grep -E '^  [* ] ' | awk '{print $(NF-5)}')
                COMPREPLY=($(compgen -W "$names" -- "$cur"))
            fi
            ;;
        import)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--name --legacy --force --keep-local --keep-both --print" -- "$cur"))
            else
                _filedir icmsf
            fi
            ;;
        inspect|diff)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--legacy" -- "$cur"))
            else
                _filedir icmsf
            fi
            ;;
        rm)
            local names
            names=$(icmsf ls 2>/dev/null | grep -E '^  [* ] ' | awk '{print $(NF-5)}')
            COMPREPLY=($(compgen -W "$names" -- "$cur"))
            ;;
        config)
            COMPREPLY=($(compgen -W "init --force" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _icmsf icmsf
`

const zshCompletion = `#compdef icmsf

_icmsf() {
    local -a commands
    commands=(
        'add:Store a new connection profile'
        'ls:List stored profiles'
        'rm:Remove stored profiles'
        'export:Write a profile to an encrypted file'
        'import:Decrypt a file and store its profile'
        'inspect:Show the header of an encrypted file'
        'diff:Compare an encrypted file with a stored profile'
        'compact:Compact the profile store'
        'config:Show or initialize settings'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'icmsf commands' commands
            ;;
        args)
            case "${words[2]}" in
                add)
                    _arguments \
                        '--host[Server address]:host:_hosts' \
                        '--ssh-port[SSH port]:port' \
                        '--api-port[API port]:port' \
                        '--user[Username]:user:_users' \
                        '--cert[Certificate file]:file:_files'
                    ;;
                export)
                    _arguments \
                        '-o[Output file]:file:_files -g "*.icmsf"' \
                        '*:profile:_icmsf_profiles'
                    ;;
                import)
                    _arguments \
                        '--name[Store under this name]:name' \
                        '--legacy[Read a file from an older release]' \
                        '--force[Replace a stored profile with the same name]' \
                        '--keep-local[Keep the stored profile on conflict]' \
                        '--keep-both[Keep both on conflict]' \
                        '--print[Show the profile without storing it]' \
                        '*:file:_files -g "*.icmsf"'
                    ;;
                inspect|diff)
                    _arguments \
                        '--legacy[Read a file from an older release]' \
                        '*:file:_files -g "*.icmsf"'
                    ;;
                rm)
                    _arguments '*:profile:_icmsf_profiles'
                    ;;
                config)
                    _arguments '--force[Overwrite an existing config file]' '1:action:(init)'
                    ;;
                help)
                    _describe -t commands 'icmsf commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_icmsf_profiles() {
    local -a names
    names=(${(f)"$(icmsf ls 2>/dev/null | grep -E '^  [* ] ' | awk '{print $(NF-5)}')"})
    _describe -t names 'profiles' names
}

_icmsf "$@"
`

const fishCompletion = `# icmsf fish completions

set -l commands add ls rm export import inspect diff compact config help completion

complete -c icmsf -f

# Commands
complete -c icmsf -n "not __fish_seen_subcommand_from $commands" -a add -d 'Store a new profile'
complete -c icmsf -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List stored profiles'
complete -c icmsf -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove stored profiles'
complete -c icmsf -n "not __fish_seen_subcommand_from $commands" -a export -d 'Write an encrypted file'
complete -c icmsf -n "not __fish_seen_subcommand_from $commands" -a import -d 'Store a profile from a file'
complete -c icmsf -n "not __fish_seen_subcommand_from $commands" -a inspect -d 'Show file header'
complete -c icmsf -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare file with stored profile'
complete -c icmsf -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact profile store'
complete -c icmsf -n "not __fish_seen_subcommand_from $commands" -a config -d 'Show or initialize settings'
complete -c icmsf -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c icmsf -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# add flags
complete -c icmsf -n "__fish_seen_subcommand_from add" -l host -x -d 'Server address'
complete -c icmsf -n "__fish_seen_subcommand_from add" -l ssh-port -x -d 'SSH port'
complete -c icmsf -n "__fish_seen_subcommand_from add" -l api-port -x -d 'API port'
complete -c icmsf -n "__fish_seen_subcommand_from add" -l user -x -d 'Username'
complete -c icmsf -n "__fish_seen_subcommand_from add" -l cert -r -F -d 'Certificate file'

# export
complete -c icmsf -n "__fish_seen_subcommand_from export" -s o -r -F -d 'Output file'

# import flags and files
complete -c icmsf -n "__fish_seen_subcommand_from import" -l name -x -d 'Store under this name'
complete -c icmsf -n "__fish_seen_subcommand_from import" -l force -d 'Replace stored profile'
complete -c icmsf -n "__fish_seen_subcommand_from import" -l keep-local -d 'Keep stored profile'
complete -c icmsf -n "__fish_seen_subcommand_from import" -l keep-both -d 'Keep both profiles'
complete -c icmsf -n "__fish_seen_subcommand_from import" -l print -d 'Show without storing'
complete -c icmsf -n "__fish_seen_subcommand_from import inspect diff" -l legacy -d 'Older file format'
complete -c icmsf -n "__fish_seen_subcommand_from import inspect diff" -F

# config
complete -c icmsf -n "__fish_seen_subcommand_from config" -a init -d 'Write default config'
complete -c icmsf -n "__fish_seen_subcommand_from config" -l force -d 'Overwrite existing config'

# help completions
complete -c icmsf -n "__fish_seen_subcommand_from help" -a "$commands"
`
